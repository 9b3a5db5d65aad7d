package site

// Example returns the navigation of the LiteOS-A kernel documentation site.
// It seeds new configuration files and doubles as a realistic fixture.
func Example() *Site {
	return &Site{
		Title:       "LiteOS-A Kernel Notes",
		Description: "Annotated walkthrough of the OpenHarmony LiteOS-A kernel source",
		ThemeConfig: ThemeConfig{
			Nav: []NavEntry{
				{Text: "Home", Link: "/"},
				{Text: "Guide", Link: "/guide/"},
				{Text: "Kernel", Link: "/kernel/"},
				{
					Text:      "Annotated Source",
					AriaLabel: "Annotated kernel source mirrors",
					Items: []NavItem{
						{Text: "Gitee", Link: "https://gitee.com/weharmony/kernel_liteos_a_note"},
						{Text: "GitHub", Link: "https://github.com/kuangyufei/kernel_liteos_a_note"},
						{Text: "CodeChina", Link: "https://codechina.csdn.net/kuangyufei/kernel_liteos_a_note"},
					},
				},
				{
					Text:      "Upstream",
					AriaLabel: "OpenHarmony upstream projects",
					Items: []NavItem{
						{Text: "Kernel", Link: "https://gitee.com/openharmony/kernel_liteos_a"},
						{Text: "Documentation", Link: "https://gitee.com/openharmony/docs"},
					},
				},
			},
			Sidebar: Sidebar{
				"/guide/":  Auto(),
				"/kernel/": Auto(),
			},
		},
	}
}
