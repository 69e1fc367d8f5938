package model

import "fmt"

// Warning codes recorded while parsing or building a layer tree.
const (
	WarnUnknownLayer     = "unknown_layer"
	WarnUnknownShape     = "unknown_shape"
	WarnExpression       = "expression"
	WarnEffects          = "effects"
	WarnIllustratorLayer = "illustrator_layer"
	WarnMissingTransform = "missing_transform"
	WarnMaskMode         = "mask_mode"
	WarnLumaMatte        = "luma_matte"
	WarnBlendMode        = "blend_mode"
	WarnSkew             = "skew"
	WarnParentCycle      = "parent_cycle"
	WarnMissingParent    = "missing_parent"
	WarnMissingPrecomp   = "missing_precomp"
	WarnMergePaths       = "merge_paths"
	WarnShapeTopology    = "shape_topology"
	WarnMissingImage     = "missing_image"
	WarnMissingFont      = "missing_font"
)

type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Code + ": " + w.Message
}

// Warnings is an ordered set. The zero value is ready to use; it is not
// safe for concurrent use.
type Warnings struct {
	list []Warning
	seen map[Warning]struct{}
}

// Addf records a warning unless an identical one exists.
func (ws *Warnings) Addf(code, format string, args ...any) {
	w := Warning{Code: code, Message: fmt.Sprintf(format, args...)}
	if ws.seen == nil {
		ws.seen = make(map[Warning]struct{})
	}
	if _, ok := ws.seen[w]; ok {
		return
	}
	ws.seen[w] = struct{}{}
	ws.list = append(ws.list, w)
}

// List returns the warnings in the order they were first recorded.
func (ws *Warnings) List() []Warning {
	return append([]Warning(nil), ws.list...)
}

func (ws *Warnings) Len() int { return len(ws.list) }
