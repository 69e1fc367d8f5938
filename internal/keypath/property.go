package keypath

// Property names an animatable value a callback can override.
type Property int

const (
	TransformAnchor Property = iota
	TransformPosition
	TransformPositionX
	TransformPositionY
	TransformScale
	TransformRotation
	TransformOpacity
	TransformStartOpacity
	TransformEndOpacity

	Color
	StrokeColor
	StrokeWidth
	Opacity
	ColorFilter
	GradientColor

	Position
	Size
	CornerRadius

	PolystarPoints
	PolystarRotation
	PolystarInnerRadius
	PolystarOuterRadius
	PolystarInnerRoundedness
	PolystarOuterRoundedness

	RepeaterCopies
	RepeaterOffset

	TrimStart
	TrimEnd
	TrimOffset

	Path
	TimeRemap
	TextTracking
	Text
)

var propertyNames = map[Property]string{
	TransformAnchor:          "transform.anchor",
	TransformPosition:        "transform.position",
	TransformPositionX:       "transform.position.x",
	TransformPositionY:       "transform.position.y",
	TransformScale:           "transform.scale",
	TransformRotation:        "transform.rotation",
	TransformOpacity:         "transform.opacity",
	TransformStartOpacity:    "transform.startOpacity",
	TransformEndOpacity:      "transform.endOpacity",
	Color:                    "color",
	StrokeColor:              "strokeColor",
	StrokeWidth:              "strokeWidth",
	Opacity:                  "opacity",
	ColorFilter:              "colorFilter",
	GradientColor:            "gradientColor",
	Position:                 "position",
	Size:                     "size",
	CornerRadius:             "cornerRadius",
	PolystarPoints:           "polystar.points",
	PolystarRotation:         "polystar.rotation",
	PolystarInnerRadius:      "polystar.innerRadius",
	PolystarOuterRadius:      "polystar.outerRadius",
	PolystarInnerRoundedness: "polystar.innerRoundedness",
	PolystarOuterRoundedness: "polystar.outerRoundedness",
	RepeaterCopies:           "repeater.copies",
	RepeaterOffset:           "repeater.offset",
	TrimStart:                "trim.start",
	TrimEnd:                  "trim.end",
	TrimOffset:               "trim.offset",
	Path:                     "path",
	TimeRemap:                "timeRemap",
	TextTracking:             "text.tracking",
	Text:                     "text",
}

func (p Property) String() string {
	if s, ok := propertyNames[p]; ok {
		return s
	}
	return "unknown"
}

// ParseProperty looks a property up by its String form.
func ParseProperty(s string) (Property, bool) {
	for p, name := range propertyNames {
		if name == s {
			return p, true
		}
	}
	return 0, false
}
