package tool

func visionSpecs() []Spec {
	return []Spec{
		makeSpec("capture_viewport",
			"Capture the active viewport to an image so the model can see the scene. Read-only.",
			map[string]any{
				"width":  intProp("Capture width in pixels. Defaults to 960."),
				"height": intProp("Capture height in pixels. Defaults to 540."),
			},
			nil, false),
	}
}
