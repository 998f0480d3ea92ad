package portfolio

import (
	"fmt"
	"html/template"
	"strings"

	"poovi/internal/catalog"
)

// View 是公开渲染的结果：要么是一个完整的作品集页面，要么是
// "模板不可用"的终态页面。两者都是正常可展示状态，不是错误。
type View struct {
	HTML                template.HTML
	TemplateUnavailable bool
}

// Renderer 把 (模板, 数据快照, 样式覆盖) 纯函数地渲染为只读页面。
// 不触碰任何存储。
type Renderer struct {
	page        *template.Template
	unavailable *template.Template
}

// NewRenderer 解析内置页面模板。模板是常量，解析失败属于编程错误。
func NewRenderer() (*Renderer, error) {
	page, err := template.New("portfolio").Parse(portfolioPageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse portfolio template: %w", err)
	}
	unavailable, err := template.New("unavailable").Parse(templateUnavailablePage)
	if err != nil {
		return nil, fmt.Errorf("parse unavailable template: %w", err)
	}
	return &Renderer{page: page, unavailable: unavailable}, nil
}

type renderContext struct {
	Data  Data
	Style catalog.Style
}

// Render 渲染一份快照。模板 ID 无法解析时返回终态的
// "模板不可用"页面而非错误；数据字段缺省回退到占位内容，
// 与编辑会话使用同一套回退规则。
func (r *Renderer) Render(templateID int, data Data, styleOverride catalog.Style) (View, error) {
	tpl, ok := catalog.Get(templateID)
	if !ok {
		var sb strings.Builder
		if err := r.unavailable.Execute(&sb, nil); err != nil {
			return View{}, fmt.Errorf("render unavailable page: %w", err)
		}
		return View{HTML: template.HTML(sb.String()), TemplateUnavailable: true}, nil
	}

	ctx := renderContext{
		Data:  data.MergeOverDefaults(),
		Style: styleOverride.MergeOver(tpl.DefaultStyle),
	}

	var sb strings.Builder
	if err := r.page.Execute(&sb, ctx); err != nil {
		return View{}, fmt.Errorf("render portfolio page: %w", err)
	}
	return View{HTML: template.HTML(sb.String())}, nil
}

// 公开页面的 Go HTML 模板。配色与字体来自合并后的样式，
// 其余内容字段全部走过默认回退，稀疏快照不会出现空白区块。
const portfolioPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Data.Name}} — {{.Data.Title}}</title>
<style>
  :root {
    --primary: {{.Style.PrimaryColor}};
    --secondary: {{.Style.SecondaryColor}};
  }
  body {
    margin: 0;
    font-family: '{{.Style.FontFamily}}', sans-serif;
    color: #1a1a2e;
    background: #fafafa;
  }
  header {
    background: linear-gradient(135deg, var(--primary), var(--secondary));
    color: white;
    padding: 64px 24px;
    text-align: center;
  }
  header h1 { margin: 0 0 8px; font-size: 2.4em; }
  header p.title { margin: 0; font-size: 1.2em; opacity: 0.9; }
  main { max-width: 820px; margin: 0 auto; padding: 32px 24px; }
  section { margin-bottom: 32px; }
  h2 {
    color: var(--primary);
    border-bottom: 2px solid var(--secondary);
    padding-bottom: 6px;
    font-size: 1.3em;
  }
  ul.skills { list-style: none; padding: 0; display: flex; flex-wrap: wrap; gap: 8px; }
  ul.skills li {
    background: var(--primary);
    color: white;
    border-radius: 999px;
    padding: 4px 14px;
    font-size: 0.9em;
  }
  .entry { margin-bottom: 14px; }
  .entry .heading { font-weight: 600; }
  .entry .sub { color: #555; font-size: 0.92em; }
  footer.contact { text-align: center; color: #555; padding: 24px; font-size: 0.9em; }
  footer.contact a { color: var(--primary); text-decoration: none; margin: 0 6px; }
</style>
</head>
<body>
<header>
  <h1>{{.Data.Name}}</h1>
  <p class="title">{{.Data.Title}}</p>
</header>
<main>
  <section>
    <h2>About</h2>
    <p>{{.Data.Bio}}</p>
    <p class="sub">{{.Data.Location}}</p>
  </section>
  <section>
    <h2>Skills</h2>
    <ul class="skills">
      {{range .Data.Skills}}<li>{{.}}</li>{{end}}
    </ul>
  </section>
  <section>
    <h2>Experience</h2>
    {{range .Data.Experience}}
    <div class="entry">
      <div class="heading">{{.Role}} · {{.Company}}</div>
      <div class="sub">{{.Duration}}</div>
    </div>
    {{end}}
  </section>
  <section>
    <h2>Education</h2>
    {{range .Data.Education}}
    <div class="entry">
      <div class="heading">{{.Degree}}</div>
      <div class="sub">{{.Institution}} · {{.Year}}</div>
    </div>
    {{end}}
  </section>
  {{if .Data.Projects}}
  <section>
    <h2>Projects</h2>
    {{range .Data.Projects}}
    <div class="entry">
      <div class="heading">{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</div>
      <div class="sub">{{.Description}}</div>
    </div>
    {{end}}
  </section>
  {{end}}
</main>
<footer class="contact">
  <div>{{.Data.Email}} · {{.Data.Phone}}</div>
  <div>
    {{if .Data.LinkedIn}}<a href="{{.Data.LinkedIn}}">LinkedIn</a>{{end}}
    {{if .Data.GitHub}}<a href="{{.Data.GitHub}}">GitHub</a>{{end}}
    {{if .Data.Twitter}}<a href="{{.Data.Twitter}}">Twitter</a>{{end}}
  </div>
</footer>
</body>
</html>
`

// 模板已下架时的终态页面。这是正常展示状态，不向上抛错。
const templateUnavailablePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Template Unavailable</title>
<style>
  body {
    margin: 0;
    min-height: 100vh;
    display: flex;
    flex-direction: column;
    align-items: center;
    justify-content: center;
    font-family: sans-serif;
    color: #1a1a2e;
    background: #fafafa;
  }
  h1 { margin-bottom: 4px; }
  p { color: #555; }
</style>
</head>
<body>
  <h1>Template Unavailable</h1>
  <p>The template for this portfolio is no longer available.</p>
</body>
</html>
`
