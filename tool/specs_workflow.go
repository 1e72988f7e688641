package tool

func workflowSpecs() []Spec {
	return []Spec{
		makeSpec("batch_rename",
			"Rename multiple objects with a numbering pattern, search/replace, or prefix/suffix. Pattern uses # for the padded index, e.g. \"arm_#_jnt\".",
			map[string]any{
				"objects":     strArrayProp("Objects to rename. Defaults to the current selection."),
				"pattern":     strProp("Numbering pattern containing #, e.g. \"spine_#_jnt\"."),
				"search":      strProp("Substring to search for."),
				"replace":     strProp("Replacement for the searched substring."),
				"prefix":      strProp("Prefix to prepend to every name."),
				"suffix":      strProp("Suffix to append to every name."),
				"start_index": intProp("First number used by the pattern. Defaults to 1."),
			},
			nil, true),

		makeSpec("smart_select",
			"Select scene objects by name pattern (wildcards allowed), node type, and/or parent, optionally adding to the current selection.",
			map[string]any{
				"name_pattern":     strProp("Name pattern with * wildcards, e.g. \"*_ctrl\"."),
				"node_type":        strProp("Node type filter, e.g. \"joint\", \"mesh\", \"nurbsCurve\"."),
				"parent":           strProp("Only select descendants of this node."),
				"add_to_selection": boolProp("Add to the current selection instead of replacing it."),
			},
			nil, true),

		makeSpec("qa_check_transforms",
			"Check which of the given controllers (or the current selection) are not at rest pose: non-zero translate/rotate or non-unit scale beyond a tolerance. Read-only.",
			map[string]any{
				"objects":         strArrayProp("Controllers to check. Defaults to the current selection."),
				"tolerance":       numProp("Allowed deviation from rest values. Defaults to 0.001."),
				"check_translate": boolProp("Check translate channels. Defaults to true."),
				"check_rotate":    boolProp("Check rotate channels. Defaults to true."),
				"check_scale":     boolProp("Check scale channels. Defaults to true."),
			},
			nil, false),

		makeSpec("create_controllers_for_joints",
			"Create NURBS circle controllers with offset groups for the given joints and constrain the joints to them.",
			map[string]any{
				"joints":      strArrayProp("Joints to build controllers for. Defaults to the selected joints."),
				"ctrl_suffix": strProp("Controller name suffix. Defaults to \"_ctrl\"."),
				"grp_suffix":  strProp("Offset group name suffix. Defaults to \"_grp\"."),
				"radius":      numProp("Circle radius. Defaults to 1.0."),
				"color_index": intProp("Maya color index for the controller curves."),
			},
			nil, true),

		makeSpec("delete_objects",
			"Delete the given objects (or the current selection), optionally deleting construction history first.",
			map[string]any{
				"objects":        strArrayProp("Objects to delete. Defaults to the current selection."),
				"delete_history": boolProp("Delete construction history before deleting."),
			},
			nil, true),

		makeSpec("freeze_transformations",
			"Freeze transformations on the given objects (or the current selection), baking current values into the rest pose.",
			map[string]any{
				"objects":   strArrayProp("Objects to freeze. Defaults to the current selection."),
				"translate": boolProp("Freeze translate. Defaults to true."),
				"rotate":    boolProp("Freeze rotate. Defaults to true."),
				"scale":     boolProp("Freeze scale. Defaults to true."),
			},
			nil, true),

		makeSpec("center_pivot",
			"Move the pivot of the given objects (or the current selection) to their bounding-box center.",
			map[string]any{
				"objects": strArrayProp("Objects to adjust. Defaults to the current selection."),
			},
			nil, true),

		makeSpec("delete_history",
			"Delete construction history on the given objects (or the current selection).",
			map[string]any{
				"objects": strArrayProp("Objects to clean. Defaults to the current selection."),
			},
			nil, true),
	}
}
