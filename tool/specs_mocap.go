package tool

func mocapSpecs() []Spec {
	return []Spec{
		makeSpec("generate_root_motion",
			"Extract root motion from a pelvis joint onto a root joint: transfer selected world-space channels, optionally smooth and zero the start frame.",
			map[string]any{
				"root_joint":        strProp("Root joint receiving the motion. Defaults to \"root\"."),
				"pelvis_joint":      strProp("Pelvis joint to extract from. Defaults to \"pelvis\"."),
				"extract_tx":        boolProp("Extract X translation. Defaults to true."),
				"extract_tz":        boolProp("Extract Z translation. Defaults to true."),
				"extract_ty":        boolProp("Extract Y translation (jumps). Defaults to false."),
				"extract_yaw":       boolProp("Extract yaw rotation. Defaults to false."),
				"smooth_iterations": intProp("Smoothing passes applied to extracted curves. Defaults to 0."),
				"zero_start":        boolProp("Offset curves so the first frame is at the origin. Defaults to true."),
			},
			nil, true),

		makeSpec("cleanup_finger_animation",
			"Clean up noisy mocap finger animation on one or both hands: smooth curls, clamp to anatomical limits, suppress spread and twist jitter.",
			map[string]any{
				"hand_side":       enumProp("Which hand to clean.", "left", "right", "both"),
				"smooth_strength": numProp("Smoothing strength 0-1. Defaults to 0.5."),
				"clamp_angles":    boolProp("Clamp rotations to anatomical limits. Defaults to true."),
				"suppress_spread": boolProp("Dampen finger spread jitter. Defaults to true."),
				"suppress_twist":  boolProp("Remove finger twist noise. Defaults to true."),
			},
			nil, true),
	}
}
