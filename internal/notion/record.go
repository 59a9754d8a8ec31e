package notion

import (
	"encoding/json"
	"strings"
)

// Project is one row of the deployments database.
type Project struct {
	Name        string
	StatusLabel string
	URL         string
	RecordID    string
}

// Properties names the database columns holding each project field.
type Properties struct {
	Name   string
	Status string
	Link   string
}

type queryResponse struct {
	Results    *[]page `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type page struct {
	ID         string                     `json:"id"`
	URL        string                     `json:"url"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type titleProperty struct {
	Title []richText `json:"title"`
}

type statusProperty struct {
	Status *struct {
		Name string `json:"name"`
	} `json:"status"`
}

type linkProperty struct {
	RichText []richText `json:"rich_text"`
	URL      *string    `json:"url"`
}

func parseProject(index int, p page, props Properties) (Project, error) {
	raw := func(name string) (json.RawMessage, error) {
		v, ok := p.Properties[name]
		if !ok {
			return nil, &ParseError{Index: index, Property: name, Reason: "missing"}
		}
		return v, nil
	}

	var project Project

	v, err := raw(props.Name)
	if err != nil {
		return Project{}, err
	}
	var title titleProperty
	if err := json.Unmarshal(v, &title); err != nil || len(title.Title) == 0 {
		return Project{}, &ParseError{Index: index, Property: props.Name, Reason: "expected non-empty title"}
	}
	project.Name = title.Title[0].PlainText

	v, err = raw(props.Status)
	if err != nil {
		return Project{}, err
	}
	var status statusProperty
	if err := json.Unmarshal(v, &status); err != nil || status.Status == nil {
		return Project{}, &ParseError{Index: index, Property: props.Status, Reason: "expected status"}
	}
	project.StatusLabel = status.Status.Name

	v, err = raw(props.Link)
	if err != nil {
		return Project{}, err
	}
	var link linkProperty
	if err := json.Unmarshal(v, &link); err != nil {
		return Project{}, &ParseError{Index: index, Property: props.Link, Reason: err.Error()}
	}
	switch {
	case len(link.RichText) > 0:
		project.URL = link.RichText[0].PlainText
	case link.URL != nil:
		project.URL = *link.URL
	default:
		return Project{}, &ParseError{Index: index, Property: props.Link, Reason: "expected rich text or url"}
	}

	id, err := recordID(p.URL)
	if err != nil {
		return Project{}, &ParseError{Index: index, Property: "url", Reason: err.Error()}
	}
	project.RecordID = id

	return project, nil
}

// recordID extracts the page identifier trailing a canonical page URL,
// e.g. https://www.notion.so/Project-A-0123abcd -> 0123abcd.
func recordID(pageURL string) (string, error) {
	i := strings.LastIndex(pageURL, "-")
	if i < 0 || i == len(pageURL)-1 {
		return "", errNoRecordID
	}
	return pageURL[i+1:], nil
}
