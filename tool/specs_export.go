package tool

func exportSpecs() []Spec {
	return []Spec{
		makeSpec("export_fbx",
			"Export the scene (or the current selection) to an FBX file.",
			map[string]any{
				"file_path":         strProp("Destination .fbx path."),
				"export_selected":   boolProp("Export only the current selection. Defaults to true."),
				"animation":         boolProp("Include baked animation. Defaults to true."),
				"start_frame":       numProp("Bake range start. Defaults to the playback range start."),
				"end_frame":         numProp("Bake range end. Defaults to the playback range end."),
				"skins":             boolProp("Include skin deformation. Defaults to true."),
				"blendshapes":       boolProp("Include blendShapes. Defaults to true."),
				"smoothing_groups":  boolProp("Export smoothing groups. Defaults to true."),
				"input_connections": boolProp("Include input connections. Defaults to false."),
			},
			[]string{"file_path"}, true),

		makeSpec("import_fbx",
			"Import an FBX file into the current scene.",
			map[string]any{
				"file_path":  strProp("Source .fbx path."),
				"merge_mode": enumProp("How to combine with the scene.", "add", "merge", "exmerge"),
			},
			[]string{"file_path"}, true),
	}
}
