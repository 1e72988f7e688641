package tool

func codeSpecs() []Spec {
	return []Spec{
		makeSpec("execute_python_code",
			"Execute arbitrary Python code inside Maya via maya.cmds. Use only when no dedicated tool covers the task. The code is screened before execution.",
			map[string]any{
				"code": strProp("Python source to run. Must not spawn subprocesses or touch the filesystem destructively."),
			},
			[]string{"code"}, true),
	}
}
