package tool

func animationSpecs() []Spec {
	return []Spec{
		makeSpec("euler_filter",
			"Apply a Euler filter to the rotation curves of the given objects (or the current selection) to fix gimbal flips and discontinuities.",
			map[string]any{
				"objects": strArrayProp("Objects whose rotation curves to filter. Defaults to the current selection."),
			},
			nil, true),

		makeSpec("mirror_controller_pose",
			"Mirror the pose of the selected controllers to their opposite-side counterparts, matched by naming convention (L_/R_, _l/_r, left/right).",
			map[string]any{
				"objects":     strArrayProp("Controllers to mirror. Defaults to the current selection."),
				"mirror_axis": enumProp("World axis to mirror across.", "x", "y", "z"),
			},
			nil, true),

		makeSpec("smooth_animation_curves",
			"Smooth the animation curves of the given objects with a moving-average pass, reducing mocap jitter while keeping overall motion.",
			map[string]any{
				"objects":    strArrayProp("Objects whose curves to smooth. Defaults to the current selection."),
				"iterations": intProp("Smoothing passes to run. Defaults to 1."),
				"attributes": strArrayProp("Attributes to smooth (e.g. [\"tx\",\"ry\"]). Defaults to all keyed channels."),
			},
			nil, true),
	}
}
