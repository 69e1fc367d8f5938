// Package sample builds a small demo composition: a dark backdrop with a
// rectangle, an ellipse, a triangle and a spinning symbol.
package sample

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/inamate/motion/internal/model"
	"github.com/inamate/motion/internal/parse"
)

const (
	width     = 1280
	height    = 720
	fps       = 24
	frames    = 48
	spinLen   = 24
	spinnerID = "spinner"
)

type obj = map[string]any

func static(v any) obj { return obj{"a": 0, "k": v} }

func transform(x, y float64) obj {
	return obj{
		"a": static([]float64{0, 0, 0}),
		"p": static([]float64{x, y, 0}),
		"s": static([]float64{100, 100, 100}),
		"r": static(0),
		"o": static(100),
	}
}

// color converts "#rrggbb" to normalized RGBA.
func color(hex string) []float64 {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		panic(err)
	}
	return []float64{float64(v>>16&0xff) / 255, float64(v>>8&0xff) / 255, float64(v&0xff) / 255, 1}
}

func styled(fill, stroke string, shapes ...obj) []obj {
	return append(shapes,
		obj{"ty": "st", "nm": "Stroke", "c": static(color(stroke)), "o": static(100), "w": static(2), "lc": 2, "lj": 2},
		obj{"ty": "fl", "nm": "Fill", "c": static(color(fill)), "o": static(100), "r": 1},
	)
}

func shapeLayer(ind int, name string, x, y float64, end float64, shapes []obj) obj {
	return obj{
		"ty": 4, "nm": name, "ind": ind, "ip": 0, "op": end, "st": 0, "sr": 1,
		"ks":     transform(x, y),
		"shapes": shapes,
	}
}

func rect(w, h float64) obj {
	return obj{"ty": "rc", "nm": "Rect", "p": static([]float64{w / 2, h / 2}), "s": static([]float64{w, h}), "r": static(0), "d": 1}
}

func ellipse(rx, ry float64) obj {
	return obj{"ty": "el", "nm": "Ellipse", "p": static([]float64{0, 0}), "s": static([]float64{rx * 2, ry * 2}), "d": 1}
}

func triangle() obj {
	zero := [][]float64{{0, 0}, {0, 0}, {0, 0}}
	return obj{"ty": "sh", "nm": "Triangle", "ks": static(obj{
		"c": true,
		"v": [][]float64{{0, 150}, {100, 0}, {200, 150}},
		"i": zero,
		"o": zero,
	})}
}

func document() obj {
	spinner := []obj{
		shapeLayer(1, "Spinner Rect", -30, -50, frames, styled("#f5a623", "#c78400", rect(60, 100))),
		shapeLayer(2, "Spinner Ellipse", 0, -70, frames, styled("#bd10e0", "#8b0ba8", ellipse(20, 20))),
	}
	spin := transform(500, 450)
	spin["r"] = obj{"a": 1, "k": []obj{
		{"t": 0, "s": []float64{0}, "i": obj{"x": []float64{1}, "y": []float64{1}}, "o": obj{"x": []float64{0}, "y": []float64{0}}},
		{"t": spinLen - 1, "s": []float64{360}},
	}}

	return obj{
		"v": "5.7.4", "nm": "Sample", "fr": fps, "ip": 0, "op": frames, "w": width, "h": height,
		"assets": []obj{{"id": spinnerID, "layers": spinner}},
		"markers": []obj{
			{"cm": "spin", "tm": 0, "dr": spinLen},
			{"cm": "rest", "tm": spinLen, "dr": frames - spinLen},
		},
		"layers": []obj{
			shapeLayer(1, "Rectangle", 200, 200, frames, styled("#e94560", "#000000", rect(200, 150))),
			shapeLayer(2, "Ellipse", 640, 360, frames, styled("#0f3460", "#16213e", ellipse(120, 80))),
			shapeLayer(3, "Triangle", 900, 200, frames, styled("#53d769", "#2d6a4f", triangle())),
			{
				"ty": 0, "nm": "Spinner", "ind": 4, "refId": spinnerID, "w": width, "h": height,
				"ip": 0, "op": frames, "st": 0, "sr": 1, "ks": spin,
			},
			{
				"ty": 1, "nm": "Background", "ind": 5, "ip": 0, "op": frames, "st": 0, "sr": 1,
				"sc": "#1a1a2e", "sw": width, "sh": height, "ks": transform(0, 0),
			},
		},
	}
}

// JSON returns the sample as composition JSON.
func JSON() []byte {
	data, err := json.Marshal(document())
	if err != nil {
		panic(err)
	}
	return data
}

// Composition parses the sample.
func Composition() (*model.Composition, error) {
	return parse.JSON(JSON())
}
