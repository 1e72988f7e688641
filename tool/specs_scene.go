package tool

// Scene basics: the highest-frequency operations animators reach for.

func sceneSpecs() []Spec {
	return []Spec{
		makeSpec("zero_out_transforms",
			"Reset translate and rotate to 0 and scale to 1 on the given objects (or the current selection). Skips locked and connected channels.",
			map[string]any{
				"objects": strArrayProp("Objects to reset. Defaults to the current selection."),
			},
			nil, true),

		makeSpec("create_locator_at_selection",
			"Create a locator at each selected object's world position, or one at the origin when nothing is selected.",
			map[string]any{
				"name_prefix": strProp("Name prefix for created locators. Defaults to \"loc\"."),
			},
			nil, true),

		makeSpec("set_keyframe",
			"Set a keyframe on the given objects (or the current selection), optionally at a specific frame and on specific attributes only.",
			map[string]any{
				"objects":    strArrayProp("Objects to key. Defaults to the current selection."),
				"frame":      numProp("Frame to key at. Defaults to the current frame."),
				"attributes": strArrayProp("Attributes to key (e.g. [\"tx\",\"ry\"]). Defaults to all keyable channels."),
			},
			nil, true),
	}
}
