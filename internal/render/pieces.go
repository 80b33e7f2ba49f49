package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/park285/cheese-checkers/internal/checkers"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

type pieceStyle struct {
	fill, rim, stroke, crown string
}

var pieceStyles = map[checkers.Player]pieceStyle{
	checkers.White: {fill: "#f4efe3", rim: "#d8cfbb", stroke: "#5b4a36", crown: "#c9961a"},
	checkers.Black: {fill: "#2b2622", rim: "#4a423b", stroke: "#0d0b09", crown: "#e5b53a"},
}

const crownPath = "M 30 58 L 26 38 L 36 47 L 45 32 L 50 44 L 55 32 L 64 47 L 74 38 L 70 58 Z"

// pieceSVG draws a disc on a 100x100 view box; kings get a crown on top.
func pieceSVG(player checkers.Player, king bool) []byte {
	st, ok := pieceStyles[player]
	if !ok {
		st = pieceStyles[checkers.White]
	}
	var buf bytes.Buffer
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" width="100" height="100">`)
	fmt.Fprintf(&buf, `<circle cx="50" cy="54" r="38" fill="#000000" fill-opacity="0.25"/>`)
	fmt.Fprintf(&buf, `<circle cx="50" cy="50" r="38" fill="%s" stroke="%s" stroke-width="3"/>`, st.fill, st.stroke)
	fmt.Fprintf(&buf, `<circle cx="50" cy="50" r="27" fill="none" stroke="%s" stroke-width="4"/>`, st.rim)
	if king {
		fmt.Fprintf(&buf, `<path d="%s" fill="%s" stroke="%s" stroke-width="2"/>`, crownPath, st.crown, st.stroke)
		fmt.Fprintf(&buf, `<rect x="30" y="60" width="40" height="7" fill="%s" stroke="%s" stroke-width="2"/>`, st.crown, st.stroke)
	}
	buf.WriteString(`</svg>`)
	return buf.Bytes()
}

type pieceCacheKey struct {
	player checkers.Player
	king   bool
	size   int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(piece checkers.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{player: piece.Player, king: piece.King, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(bytes.NewReader(pieceSVG(piece.Player, piece.King)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
