package component

// MetaData is the descriptive content shared by cards and list items.
type MetaData struct {
	Title       string
	Subtitle    string
	Description string
	Links       []Link
	Labels      []string
}

func (m MetaData) context(r *Renderer) (map[string]any, error) {
	links := make([]Component, 0, len(m.Links))
	urls := make([]map[string]any, 0, len(m.Links))
	for _, link := range m.Links {
		links = append(links, link.WithClass("btn btn-secondary"))
		urls = append(urls, map[string]any{"url": link.URL, "target": link.Target})
	}
	rendered, err := r.renderEach(links)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"title":       m.Title,
		"subtitle":    m.Subtitle,
		"description": m.Description,
		"links":       rendered,
		"link_urls":   urls,
		"labels":      m.Labels,
	}, nil
}

// Card shows a title, optional subtitle header, description and footer links.
type Card struct {
	MetaData
}

func (c Card) Tags() Tags { return Tags{} }

func (c Card) Render(r *Renderer) (string, error) {
	ctx, err := c.context(r)
	if err != nil {
		return "", err
	}
	return r.Execute("card", ctx)
}

// CardList lays cards out in a responsive grid.
type CardList struct {
	Cards []Card
}

func (c CardList) Tags() Tags {
	children := make([]Component, 0, len(c.Cards))
	for _, card := range c.Cards {
		children = append(children, card)
	}
	return MergeTags(Tags{}, children...)
}

func (c CardList) Render(r *Renderer) (string, error) {
	children := make([]Component, 0, len(c.Cards))
	for _, card := range c.Cards {
		children = append(children, card)
	}
	cards, err := r.renderEach(children)
	if err != nil {
		return "", err
	}
	return r.Execute("card_list", map[string]any{"cards": cards})
}

// ListItem is an entry of a ListGroup. A single link turns the whole item
// into an anchor.
type ListItem struct {
	MetaData
}

func (c ListItem) Tags() Tags { return Tags{} }

func (c ListItem) Render(r *Renderer) (string, error) {
	ctx, err := c.context(r)
	if err != nil {
		return "", err
	}
	ctx["single_link"] = len(c.Links) == 1
	return r.Execute("list_item", ctx)
}

// ListGroup renders list items as a flush list group.
type ListGroup struct {
	Items []ListItem
}

func (c ListGroup) Tags() Tags { return Tags{} }

func (c ListGroup) Render(r *Renderer) (string, error) {
	children := make([]Component, 0, len(c.Items))
	for _, item := range c.Items {
		children = append(children, item)
	}
	items, err := r.renderEach(children)
	if err != nil {
		return "", err
	}
	return r.Execute("list_group", map[string]any{"items": items})
}

// Hero is a centred banner with a heading, lead text and call-to-action
// buttons.
type Hero struct {
	Title      string
	TitleLevel string
	Body       string
	Links      []LinkData
}

func (c Hero) Tags() Tags { return Tags{} }

func (c Hero) Render(r *Renderer) (string, error) {
	links := make([]map[string]any, 0, len(c.Links))
	for _, link := range c.Links {
		links = append(links, map[string]any{"url": link.URL, "title": link.DisplayTitle()})
	}
	return r.Execute("hero", map[string]any{
		"title":       c.Title,
		"title_level": defaultString(c.TitleLevel, "h1"),
		"body":        c.Body,
		"links":       links,
	})
}

// FeatureItem is one entry of a FeaturePanel.
type FeatureItem struct {
	Title      string
	TitleLevel string
	Body       string
	Link       *Link
}

func (c FeatureItem) Tags() Tags { return Tags{} }

func (c FeatureItem) Render(r *Renderer) (string, error) {
	link := ""
	if c.Link != nil {
		html, err := r.Render(*c.Link)
		if err != nil {
			return "", err
		}
		link = html
	}
	return r.Execute("feature_item", map[string]any{
		"title":       c.Title,
		"title_level": defaultString(c.TitleLevel, "h4"),
		"body":        c.Body,
		"link":        link,
	})
}

// FeaturePanel groups feature items under an optional heading and intro.
type FeaturePanel struct {
	Title         string
	TitleLevel    string
	Subtitle      string
	SubtitleLevel string
	Body          string
	Items         []Component
}

func (c FeaturePanel) Tags() Tags { return MergeTags(Tags{}, c.Items...) }

func (c FeaturePanel) Render(r *Renderer) (string, error) {
	items, err := r.renderEach(c.Items)
	if err != nil {
		return "", err
	}
	return r.Execute("feature_panel", map[string]any{
		"title":          c.Title,
		"title_level":    defaultString(c.TitleLevel, "h2"),
		"subtitle":       c.Subtitle,
		"subtitle_level": defaultString(c.SubtitleLevel, "h3"),
		"body":           c.Body,
		"intro":          c.Subtitle != "" || c.Body != "",
		"items":          items,
	})
}

// SideMenuItem is a top-level menu entry with optional children.
type SideMenuItem struct {
	Parent   LinkData
	Icon     string
	Children []LinkData
}

// SideMenu is a page leftbar. It opens the content column, so the page
// template does not add its own.
type SideMenu struct {
	Items []SideMenuItem
	Fixed bool
}

func (c SideMenu) Tags() Tags { return Tags{} }

func (c SideMenu) Render(r *Renderer) (string, error) {
	items := make([]map[string]any, 0, len(c.Items))
	for _, item := range c.Items {
		children := make([]map[string]any, 0, len(item.Children))
		for _, child := range item.Children {
			children = append(children, map[string]any{"url": child.URL, "title": child.DisplayTitle()})
		}
		items = append(items, map[string]any{
			"url":      item.Parent.URL,
			"title":    item.Parent.DisplayTitle(),
			"icon":     item.Icon,
			"children": children,
		})
	}
	return r.Execute("sidemenu", map[string]any{"items": items, "fixed": c.Fixed})
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
