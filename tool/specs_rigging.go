package tool

func riggingSpecs() []Spec {
	return []Spec{
		makeSpec("create_joints",
			"Create a joint chain from an ordered list of joint definitions. Each entry needs a name and may give a world position and a parent.",
			map[string]any{
				"joints": map[string]any{
					"type":        "array",
					"description": "Ordered joint definitions, parents before children.",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":     strProp("Joint name."),
							"position": map[string]any{"type": "array", "items": map[string]any{"type": "number"}, "description": "World position [x, y, z]. Defaults to the origin."},
							"parent":   strProp("Parent joint name. Defaults to the previously created joint."),
						},
						"required": []any{"name"},
					},
				},
			},
			[]string{"joints"}, true),

		makeSpec("bind_skin",
			"Bind a mesh to a set of joints with a smooth skinCluster.",
			map[string]any{
				"mesh":           strProp("Mesh to bind. Defaults to the selected mesh."),
				"joints":         strArrayProp("Influence joints. Defaults to the selected joints."),
				"max_influences": intProp("Maximum influences per vertex. Defaults to 4."),
				"bind_method":    intProp("Bind method: 0 closest distance, 1 closest in hierarchy. Defaults to 0."),
			},
			nil, true),

		makeSpec("copy_skin_weights",
			"Copy skin weights from one skinned mesh to another.",
			map[string]any{
				"source":                strProp("Skinned source mesh."),
				"target":                strProp("Target mesh (bound automatically when not yet skinned)."),
				"surface_association":   enumProp("Surface association mode.", "closestPoint", "closestComponent", "rayCast"),
				"influence_association": enumProp("Influence association mode.", "closestJoint", "name", "label", "oneToOne"),
			},
			[]string{"source", "target"}, true),

		makeSpec("create_constraint",
			"Create a constraint from a driver object to a target object.",
			map[string]any{
				"constraint_type": enumProp("Constraint type.", "parent", "point", "orient", "scale", "aim", "poleVector"),
				"driver":          strProp("Driving object."),
				"target":          strProp("Constrained object."),
				"maintain_offset": boolProp("Maintain the current offset. Defaults to true."),
			},
			[]string{"constraint_type", "driver", "target"}, true),

		makeSpec("create_ik_handle",
			"Create an IK handle between two joints.",
			map[string]any{
				"start_joint": strProp("Chain start joint."),
				"end_joint":   strProp("Chain end joint (effector)."),
				"solver":      enumProp("IK solver.", "ikRPsolver", "ikSCsolver", "ikSplineSolver"),
				"name":        strProp("Handle name. Defaults to \"<end_joint>_ikh\"."),
			},
			[]string{"start_joint", "end_joint"}, true),

		makeSpec("add_blendshape",
			"Add a blendShape deformer to a base mesh from one or more target meshes.",
			map[string]any{
				"base_mesh":     strProp("Mesh receiving the blendShape."),
				"target_meshes": strArrayProp("Target shapes, one weight each."),
				"name":          strProp("Deformer name. Defaults to \"<base_mesh>_bs\"."),
			},
			[]string{"base_mesh", "target_meshes"}, true),

		makeSpec("orient_joints",
			"Re-orient the given joints (or the selected joint chain) to a consistent axis convention.",
			map[string]any{
				"joints":         strArrayProp("Joints to orient. Defaults to the selected joints."),
				"primary_axis":   enumProp("Axis aimed down the bone.", "xyz", "yzx", "zxy", "zyx", "yxz", "xzy"),
				"secondary_axis": enumProp("Secondary axis world orientation.", "xup", "xdown", "yup", "ydown", "zup", "zdown", "none"),
			},
			nil, true),
	}
}
