package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/park285/cheese-checkers/internal/checkers"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// MoveHighlight marks the last move played, including the jumped cells.
type MoveHighlight struct {
	From     checkers.Position
	To       checkers.Position
	Captures []checkers.Position
}

type Options struct {
	Highlight *MoveHighlight
	Selected  *checkers.Position
	Targets   []checkers.Position
	HUDHeader string
	HUDTurn   string
	// Flip draws the board from black's side.
	Flip bool
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board checkers.Board, opts Options) ([]byte, error)
}

type pngRenderer struct {
	squareSize int
}

func NewBoardRenderer() BoardRenderer {
	return &pngRenderer{squareSize: 64}
}

const (
	sideMargin           = 28
	topMargin            = 100
	bottomMargin         = 28
	titleHeight          = 34
	secondaryPanelHeight = 26
	gapBetweenPanels     = 10
	gapToBoard           = 18
	panelRadius          = 10
	panelPaddingX        = 18
	titleMinWidth        = 220
	scoreMinWidth        = 96
	turnMinWidth         = 120
	shadowOffsetY        = 4
)

func (r *pngRenderer) RenderPNG(ctx context.Context, board checkers.Board, opts Options) ([]byte, error) {
	squareSize := r.squareSize
	boardSize := squareSize * checkers.Size

	totalWidth := boardSize + sideMargin*2
	totalHeight := boardSize + topMargin + bottomMargin
	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	g := geometry{squareSize: squareSize, origin: origin, flip: opts.Flip}

	drawHUD(img, board, opts, boardRect)
	drawBoardShadow(img, boardRect)
	drawSquares(img, g)
	drawHighlight(img, g, opts.Highlight)
	if opts.Selected != nil {
		drawSquareOverlay(img, g, *opts.Selected, selectedFill)
	}
	if err := drawPieces(img, board, g); err != nil {
		return nil, err
	}
	for _, t := range opts.Targets {
		drawTargetDot(img, g, t)
	}
	drawCoordinates(img, g)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	backgroundColor     = color.RGBA{R: 22, G: 24, B: 36, A: 255}
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	lastMoveFill        = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	lastMoveArrow       = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	captureMarker       = color.NRGBA{R: 220, G: 64, B: 64, A: 170}
	selectedFill        = color.NRGBA{R: 120, G: 220, B: 140, A: 150}
	targetDot           = color.NRGBA{R: 40, G: 40, B: 40, A: 120}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnPanelColor   = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor      = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	boardShadowColor    = color.NRGBA{0, 0, 0, 60}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

type geometry struct {
	squareSize int
	origin     image.Point
	flip       bool
}

func (g geometry) rect(pos checkers.Position) image.Rectangle {
	row, col := pos.Row, pos.Col
	if g.flip {
		row, col = checkers.Size-1-row, checkers.Size-1-col
	}
	x := g.origin.X + col*g.squareSize
	y := g.origin.Y + row*g.squareSize
	return image.Rect(x, y, x+g.squareSize, y+g.squareSize)
}

func (g geometry) center(pos checkers.Position) image.Point {
	r := g.rect(pos)
	return image.Pt(r.Min.X+g.squareSize/2, r.Min.Y+g.squareSize/2)
}

func drawBoardShadow(img *image.RGBA, boardRect image.Rectangle) {
	shadowRect := image.Rect(boardRect.Min.X+4, boardRect.Min.Y+8, boardRect.Max.X+8, boardRect.Max.Y+10)
	imagedraw.Draw(img, shadowRect, image.NewUniform(boardShadowColor), image.Point{}, imagedraw.Over)
}

func drawSquares(dst imagedraw.Image, g geometry) {
	for row := 0; row < checkers.Size; row++ {
		for col := 0; col < checkers.Size; col++ {
			pos := checkers.Pos(row, col)
			clr := lightSquare
			if checkers.Playable(pos) {
				clr = darkSquare
			}
			imagedraw.Draw(dst, g.rect(pos), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board checkers.Board, g geometry) error {
	for row := 0; row < checkers.Size; row++ {
		for col := 0; col < checkers.Size; col++ {
			pos := checkers.Pos(row, col)
			piece, ok := board.At(pos)
			if !ok {
				continue
			}
			img, err := renderPieceImage(piece, g.squareSize)
			if err != nil {
				return err
			}
			imagedraw.Draw(dst, g.rect(pos), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawHighlight(img *image.RGBA, g geometry, h *MoveHighlight) {
	if h == nil {
		return
	}
	drawSquareOverlay(img, g, h.From, lastMoveFill)
	drawSquareOverlay(img, g, h.To, lastMoveFill)
	for _, c := range h.Captures {
		drawDisc(img, g.center(c), g.squareSize/5, captureMarker)
	}
	drawArrow(img, g.center(h.From), g.center(h.To), g.squareSize, lastMoveArrow)
}

func drawSquareOverlay(img *image.RGBA, g geometry, pos checkers.Position, clr color.Color) {
	if !checkers.InBounds(pos.Row, pos.Col) {
		return
	}
	imagedraw.Draw(img, g.rect(pos), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawTargetDot(img *image.RGBA, g geometry, pos checkers.Position) {
	if !checkers.InBounds(pos.Row, pos.Col) {
		return
	}
	drawDisc(img, g.center(pos), g.squareSize/8, targetDot)
}

func drawHUD(img *image.RGBA, board checkers.Board, opts Options, boardRect image.Rectangle) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face}

	title := strings.TrimSpace(opts.HUDHeader)
	if title == "" {
		title = "Checkers"
	}
	turnText := strings.TrimSpace(opts.HUDTurn)
	if turnText == "" {
		turnText = "Turn"
	}
	scoreText := fmt.Sprintf("W %d : B %d", board.Count(checkers.White), board.Count(checkers.Black))

	turnBottom := boardRect.Min.Y - gapToBoard
	turnTop := turnBottom - secondaryPanelHeight
	titleBottom := turnTop - gapBetweenPanels
	titleTop := titleBottom - titleHeight

	measure := func(s string, min int) int {
		if w := drawer.MeasureString(s).Round() + panelPaddingX*2; w > min {
			return w
		}
		return min
	}
	scoreWidth := measure(scoreText, scoreMinWidth)
	titleWidth := measure(title, titleMinWidth)
	if maxW := boardRect.Dx() - scoreWidth - 16; titleWidth > maxW {
		titleWidth = maxW
	}
	turnWidth := measure(turnText, turnMinWidth)
	if maxW := boardRect.Dx() - 40; turnWidth > maxW {
		turnWidth = maxW
	}

	titleRect := image.Rect(boardRect.Min.X, titleTop, boardRect.Min.X+titleWidth, titleBottom)
	scoreRect := image.Rect(boardRect.Max.X-scoreWidth, titleTop, boardRect.Max.X, titleBottom)
	turnLeft := boardRect.Min.X + (boardRect.Dx()-turnWidth)/2
	turnRect := image.Rect(turnLeft, turnTop, turnLeft+turnWidth, turnBottom)

	for _, r := range []image.Rectangle{titleRect, scoreRect, turnRect} {
		drawRoundedPanel(img, r.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	}
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawRoundedPanel(img, scoreRect, panelRadius, hudPanelColor)
	drawRoundedPanel(img, turnRect, panelRadius, hudTurnPanelColor)

	title = truncateWithEllipsis(face, title, titleRect.Dx()-panelPaddingX*2)
	turnText = truncateWithEllipsis(face, turnText, turnRect.Dx()-panelPaddingX*2)

	drawCenteredString(drawer, titleRect, title, hudTextPrimary)
	drawCenteredString(drawer, scoreRect, scoreText, hudTextPrimary)
	drawCenteredString(drawer, turnRect, turnText, hudTurnTextColor)
}

// drawCoordinates labels rows on the left and columns below the board
// with the same indices the API uses.
func drawCoordinates(dst imagedraw.Image, g geometry) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	boardEnd := g.origin.Y + checkers.Size*g.squareSize

	for i := 0; i < checkers.Size; i++ {
		rowCenter := g.center(checkers.Pos(i, 0))
		drawCenteredText(drawer, strconv.Itoa(i), g.origin.X-sideMargin/2, rowCenter.Y+ascent/2)
		colCenter := g.center(checkers.Pos(0, i))
		drawCenteredText(drawer, strconv.Itoa(i), colCenter.X, boardEnd+ascent+4)
	}
}

func drawArrow(img *image.RGBA, start, end image.Point, squareSize int, clr color.Color) {
	if start == end {
		return
	}
	dx := float64(end.X - start.X)
	dy := float64(end.Y - start.Y)
	length := math.Hypot(dx, dy)

	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	baseLength := length - float64(squareSize)*0.45
	if baseLength < float64(squareSize)*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := float64(squareSize) * 0.08
	headWidth := float64(squareSize) * 0.32

	baseX := float64(start.X) + dirX*baseLength
	baseY := float64(start.Y) + dirY*baseLength

	fillQuad(img,
		pointF{float64(start.X) - perpX*halfWidth, float64(start.Y) - perpY*halfWidth},
		pointF{float64(start.X) + perpX*halfWidth, float64(start.Y) + perpY*halfWidth},
		pointF{baseX + perpX*halfWidth, baseY + perpY*halfWidth},
		pointF{baseX - perpX*halfWidth, baseY - perpY*halfWidth},
		clr)
	fillTriangleF(img,
		pointF{float64(end.X), float64(end.Y)},
		pointF{baseX - perpX*headWidth/2, baseY - perpY*headWidth/2},
		pointF{baseX + perpX*headWidth/2, baseY + perpY*headWidth/2},
		clr)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	radius = min(radius, rect.Dx()/2, rect.Dy()/2)
	fill := image.NewUniform(clr)
	if radius <= 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	// Non-overlapping strips so translucent colors blend once.
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	corners := []struct {
		center image.Point
		area   image.Rectangle
	}{
		{image.Pt(rect.Min.X+radius, rect.Min.Y+radius), image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+radius, rect.Min.Y+radius)},
		{image.Pt(rect.Max.X-radius-1, rect.Min.Y+radius), image.Rect(rect.Max.X-radius, rect.Min.Y, rect.Max.X, rect.Min.Y+radius)},
		{image.Pt(rect.Min.X+radius, rect.Max.Y-radius-1), image.Rect(rect.Min.X, rect.Max.Y-radius, rect.Min.X+radius, rect.Max.Y)},
		{image.Pt(rect.Max.X-radius-1, rect.Max.Y-radius-1), image.Rect(rect.Max.X-radius, rect.Max.Y-radius, rect.Max.X, rect.Max.Y)},
	}
	r2 := radius * radius
	for _, c := range corners {
		for y := c.area.Min.Y; y < c.area.Max.Y; y++ {
			for x := c.area.Min.X; x < c.area.Max.X; x++ {
				dx, dy := x-c.center.X, y-c.center.Y
				if dx*dx+dy*dy <= r2 {
					blendPixel(img, x, y, clr)
				}
			}
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := max(rect.Min.X+(rect.Dx()-width)/2, rect.Min.X)
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	if radius <= 0 {
		blendPixel(img, center.X, center.Y, clr)
		return
	}
	r2 := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= r2 {
				blendPixel(img, center.X+x, center.Y+y, clr)
			}
		}
	}
}

// blendPixel composites clr over the pixel with source-over alpha.
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 65535 - sa
	// RGBA() is premultiplied, as is image.RGBA.
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*0x101*inv/65535) >> 8),
		G: uint8((sg + uint32(dst.G)*0x101*inv/65535) >> 8),
		B: uint8((sb + uint32(dst.B)*0x101*inv/65535) >> 8),
		A: uint8((sa + uint32(dst.A)*0x101*inv/65535) >> 8),
	})
}

type pointF struct {
	X float64
	Y float64
}

func fillQuad(img *image.RGBA, p0, p1, p2, p3 pointF, clr color.Color) {
	fillTriangleF(img, p0, p1, p2, clr)
	fillTriangleF(img, p0, p2, p3, clr)
}

func fillTriangleF(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if pointInTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func pointInTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	return alpha >= 0 && beta >= 0 && 1-alpha-beta >= 0
}
