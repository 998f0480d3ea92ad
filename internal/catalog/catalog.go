// Package catalog holds the static template registry. It is populated once at
// init and read-only afterwards, so lookups are safe for concurrent use
// without synchronization.
package catalog

import "strings"

// Style 描述模板的配色与排版，同时也是作品集样式覆盖的字段形状。
// 记录中的覆盖字段逐项合并在模板默认值之上，存在即生效。
type Style struct {
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
	FontFamily     string `json:"fontFamily,omitempty"`
	Layout         string `json:"layout,omitempty"`
}

// MergeOver 返回 override 逐字段覆盖 base 后的样式。
func (override Style) MergeOver(base Style) Style {
	merged := base
	if override.PrimaryColor != "" {
		merged.PrimaryColor = override.PrimaryColor
	}
	if override.SecondaryColor != "" {
		merged.SecondaryColor = override.SecondaryColor
	}
	if override.FontFamily != "" {
		merged.FontFamily = override.FontFamily
	}
	if override.Layout != "" {
		merged.Layout = override.Layout
	}
	return merged
}

// Template 表示目录中的一个可选模板。
// Rating 与 UsageCount 仅用于展示，核心逻辑从不修改它们。
type Template struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	Color        string  `json:"color"`
	DefaultStyle Style   `json:"defaultStyle"`
	Rating       float64 `json:"rating"`
	UsageCount   int     `json:"usageCount"`
}

var templates = []Template{
	{
		ID:          1,
		Name:        "Modern Minimal",
		Category:    "Professional",
		Description: "Clean lines and generous whitespace for a focused first impression.",
		Color:       "from-blue-500 to-cyan-500",
		DefaultStyle: Style{
			PrimaryColor:   "#3b82f6",
			SecondaryColor: "#06b6d4",
			FontFamily:     "Inter",
			Layout:         "single-column",
		},
		Rating:     4.8,
		UsageCount: 1243,
	},
	{
		ID:          2,
		Name:        "Creative Bold",
		Category:    "Designer",
		Description: "Vivid gradients and oversized headings for visual portfolios.",
		Color:       "from-purple-500 to-pink-500",
		DefaultStyle: Style{
			PrimaryColor:   "#a855f7",
			SecondaryColor: "#ec4899",
			FontFamily:     "Poppins",
			Layout:         "grid",
		},
		Rating:     4.7,
		UsageCount: 987,
	},
	{
		ID:          3,
		Name:        "Tech Pro",
		Category:    "Developer",
		Description: "A pragmatic layout that puts skills and projects front and center.",
		Color:       "from-green-500 to-teal-500",
		DefaultStyle: Style{
			PrimaryColor:   "#22c55e",
			SecondaryColor: "#14b8a6",
			FontFamily:     "JetBrains Mono",
			Layout:         "sidebar",
		},
		Rating:     4.9,
		UsageCount: 1876,
	},
	{
		ID:          4,
		Name:        "Executive",
		Category:    "Business",
		Description: "Understated and formal, built for leadership profiles.",
		Color:       "from-orange-500 to-red-500",
		DefaultStyle: Style{
			PrimaryColor:   "#f97316",
			SecondaryColor: "#ef4444",
			FontFamily:     "Georgia",
			Layout:         "single-column",
		},
		Rating:     4.6,
		UsageCount: 654,
	},
	{
		ID:          5,
		Name:        "Portfolio Plus",
		Category:    "Creative",
		Description: "Project-first storytelling with room for large imagery.",
		Color:       "from-indigo-500 to-blue-500",
		DefaultStyle: Style{
			PrimaryColor:   "#6366f1",
			SecondaryColor: "#3b82f6",
			FontFamily:     "Montserrat",
			Layout:         "grid",
		},
		Rating:     4.7,
		UsageCount: 1102,
	},
	{
		ID:          6,
		Name:        "Clean & Simple",
		Category:    "Minimal",
		Description: "Nothing but the essentials, typeset with care.",
		Color:       "from-gray-600 to-gray-800",
		DefaultStyle: Style{
			PrimaryColor:   "#4b5563",
			SecondaryColor: "#1f2937",
			FontFamily:     "Helvetica",
			Layout:         "single-column",
		},
		Rating:     4.5,
		UsageCount: 832,
	},
	{
		ID:          7,
		Name:        "Freelance Focus",
		Category:    "Professional",
		Description: "Leads with contact details and availability for client work.",
		Color:       "from-amber-500 to-orange-500",
		DefaultStyle: Style{
			PrimaryColor:   "#f59e0b",
			SecondaryColor: "#f97316",
			FontFamily:     "Inter",
			Layout:         "sidebar",
		},
		Rating:     4.4,
		UsageCount: 421,
	},
	{
		ID:          8,
		Name:        "Studio Dark",
		Category:    "Designer",
		Description: "A dark canvas that lets accent colors and work samples pop.",
		Color:       "from-slate-700 to-slate-900",
		DefaultStyle: Style{
			PrimaryColor:   "#334155",
			SecondaryColor: "#0f172a",
			FontFamily:     "Poppins",
			Layout:         "grid",
		},
		Rating:     4.6,
		UsageCount: 765,
	},
}

var categories = buildCategories()

func buildCategories() []string {
	// "All" 是合成分类，始终排在首位，代表全部模板的并集。
	ordered := []string{"All"}
	seen := map[string]bool{}
	for _, t := range templates {
		if !seen[t.Category] {
			seen[t.Category] = true
			ordered = append(ordered, t.Category)
		}
	}
	return ordered
}

// Categories 返回有序的分类名称列表，首项恒为 "All"。
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// All 返回目录中的全部模板。
func All() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// Get 按 ID 精确查找模板。
func Get(id int) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Search 对名称、分类与描述做大小写不敏感的子串匹配（OR 语义）。
// 空白查询返回全部模板。
func Search(query string) []Template {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return All()
	}
	matches := make([]Template, 0, len(templates))
	for _, t := range templates {
		if strings.Contains(strings.ToLower(t.Name), query) ||
			strings.Contains(strings.ToLower(t.Category), query) ||
			strings.Contains(strings.ToLower(t.Description), query) {
			matches = append(matches, t)
		}
	}
	return matches
}
