// Package portfolio owns the portfolio record model: the snapshot schema,
// the record store contract and its backends, the editing session, and the
// public renderer.
package portfolio

import "strings"

// Experience 表示一段工作经历子记录。
type Experience struct {
	Company  string `json:"company"`
	Role     string `json:"role"`
	Duration string `json:"duration"`
}

// Education 表示一段教育经历子记录。
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// Project 表示一个可选的项目条目。
type Project struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// Data 是作品集快照中用户填写的全部内容。
// 存储层把它当作不透明文档；字段缺省时编辑会话与渲染器
// 一律回退到 DefaultData 的占位内容，绝不渲染空白。
type Data struct {
	Name       string       `json:"name,omitempty"`
	Title      string       `json:"title,omitempty"`
	Email      string       `json:"email,omitempty"`
	Phone      string       `json:"phone,omitempty"`
	Location   string       `json:"location,omitempty"`
	Bio        string       `json:"bio,omitempty"`
	Skills     []string     `json:"skills,omitempty"`
	LinkedIn   string       `json:"linkedin,omitempty"`
	GitHub     string       `json:"github,omitempty"`
	Twitter    string       `json:"twitter,omitempty"`
	Experience []Experience `json:"experience,omitempty"`
	Education  []Education  `json:"education,omitempty"`
	Projects   []Project    `json:"projects,omitempty"`
}

// DefaultData 返回示例人物的占位数据，用作新会话的种子
// 以及渲染时逐字段回退的来源。
func DefaultData() Data {
	return Data{
		Name:     "Ananya Sharma",
		Title:    "Full Stack Developer",
		Email:    "ananya@example.com",
		Phone:    "+91 98765 43210",
		Location: "Bengaluru, India",
		Bio:      "I build delightful web experiences and care about clean, maintainable code.",
		Skills:   []string{"JavaScript", "TypeScript", "React", "Node.js", "Go"},
		LinkedIn: "https://linkedin.com/in/ananya-sharma",
		GitHub:   "https://github.com/ananya-sharma",
		Twitter:  "https://twitter.com/ananya_codes",
		Experience: []Experience{
			{Company: "Acme Labs", Role: "Senior Developer", Duration: "2022 – Present"},
			{Company: "Bright Apps", Role: "Frontend Developer", Duration: "2019 – 2022"},
		},
		Education: []Education{
			{Degree: "B.Tech, Computer Science", Institution: "IIT Madras", Year: "2019"},
		},
		Projects: []Project{
			{Title: "Open Tasks", Description: "A minimal kanban board for small teams."},
		},
	}
}

// MergeOverDefaults 将 d 逐字段合并到占位数据之上：缺失字段回退到
// 默认值，而不是空串/空列表。列表字段整体替换，保留用户给定的顺序。
func (d Data) MergeOverDefaults() Data {
	merged := DefaultData()
	if strings.TrimSpace(d.Name) != "" {
		merged.Name = d.Name
	}
	if strings.TrimSpace(d.Title) != "" {
		merged.Title = d.Title
	}
	if strings.TrimSpace(d.Email) != "" {
		merged.Email = d.Email
	}
	if strings.TrimSpace(d.Phone) != "" {
		merged.Phone = d.Phone
	}
	if strings.TrimSpace(d.Location) != "" {
		merged.Location = d.Location
	}
	if strings.TrimSpace(d.Bio) != "" {
		merged.Bio = d.Bio
	}
	if len(d.Skills) > 0 {
		merged.Skills = append([]string(nil), d.Skills...)
	}
	if strings.TrimSpace(d.LinkedIn) != "" {
		merged.LinkedIn = d.LinkedIn
	}
	if strings.TrimSpace(d.GitHub) != "" {
		merged.GitHub = d.GitHub
	}
	if strings.TrimSpace(d.Twitter) != "" {
		merged.Twitter = d.Twitter
	}
	if len(d.Experience) > 0 {
		merged.Experience = append([]Experience(nil), d.Experience...)
	}
	if len(d.Education) > 0 {
		merged.Education = append([]Education(nil), d.Education...)
	}
	if len(d.Projects) > 0 {
		merged.Projects = append([]Project(nil), d.Projects...)
	}
	return merged
}
