package autograph

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/forms"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/viewset"
	"github.com/goliatone/go-autograph/pkg/views"
)

// createRoutes serves the creation form of a node type. It hangs off the list
// URL, so it has no node of its own.
func createRoutes(env *views.Env, vs *viewset.Viewset) []views.Route {
	name := ViewPrefix + vs.ListViewName() + "-create"
	path := CreateURL(vs)
	sections := []views.Section{{
		Name:  "form",
		Title: "Creation Form",
		Body: func(r *views.Request) ([]component.Component, error) {
			form, err := forms.Build(r.Viewset.Type, forms.WithAction(path))
			if err != nil {
				return nil, err
			}
			return views.Components(form), nil
		},
	}}
	elements := []views.Element{{
		Slot: component.ElementBreadcrumbs,
		Value: func(r *views.Request) (any, error) {
			return append(r.Viewset.Parents(),
				component.LinkData{URL: r.Viewset.ListURL(), Title: r.Viewset.ListTitle()},
				component.LinkData{Title: "Create"},
			), nil
		},
	}}

	get := func(w http.ResponseWriter, r *http.Request) error {
		req := &views.Request{Request: r, Env: env, Viewset: vs}
		page, err := views.BuildPage(req, "Create a "+vs.Type.Label, sections, elements)
		if err != nil {
			return err
		}
		return env.WritePage(w, http.StatusOK, page)
	}
	post := func(w http.ResponseWriter, r *http.Request) error {
		data, err := postedForm(r)
		if err != nil {
			return err
		}
		form, err := forms.Build(vs.Type)
		if err != nil {
			return err
		}
		node, err := form.ToModel(data)
		if err != nil {
			return err
		}
		if err := env.Store.Create(r.Context(), node); err != nil {
			return err
		}
		env.Log().Infow("node created", "label", node.Label(), "pp", node.PP())
		return views.Redirect(w, r, vs.NodeURL(node))
	}

	return []views.Route{
		{Name: name, Method: http.MethodGet, Path: path, Handler: env.Handle(get)},
		{Name: name, Method: http.MethodPost, Path: path, Handler: env.Handle(post)},
	}
}

func editSections() []views.Section {
	return []views.Section{{
		Name:  "form",
		Title: "Update Node Form",
		Body: func(r *views.Request) ([]component.Component, error) {
			form, err := forms.Build(r.Viewset.Type,
				forms.WithDefaultInstance(r.Node),
				forms.WithAction(r.Viewset.NodeEndpointURL(EditEndpoint, r.Node)),
			)
			if err != nil {
				return nil, err
			}
			return views.Components(form), nil
		},
	}}
}

func postEdit(w http.ResponseWriter, r *views.Request) error {
	data, err := postedForm(r.Request)
	if err != nil {
		return err
	}
	keepSecrets(r.Node, data)

	form, err := forms.Build(r.Viewset.Type)
	if err != nil {
		return err
	}
	updated, err := form.ToModel(data)
	if err != nil {
		return err
	}
	if updated.PP() != r.Node.PP() {
		return fmt.Errorf("%w: %s cannot change primary property %q to %q",
			views.ErrIdentityConflict, updated.Label(), r.Node.PP(), updated.PP())
	}
	if err := r.Env.Store.Merge(r.Context(), updated); err != nil {
		return err
	}
	r.Env.Log().Infow("node updated", "label", updated.Label(), "pp", updated.PP())
	return views.Redirect(w, r.Request, r.Viewset.NodeURL(updated))
}

// keepSecrets resubmits stored secret hashes for secret fields left blank, so
// editing other properties does not require re-entering them.
func keepSecrets(node *schema.Node, data url.Values) {
	for _, field := range node.Type.Fields {
		if field.Type != schema.TypeSecret || data.Get(field.Name) != "" {
			continue
		}
		if stored, ok := node.Properties[field.Name].(string); ok && stored != "" {
			data.Set(field.Name, stored)
		}
	}
}

func relationshipSections() []views.Section {
	return []views.Section{{
		Name:  "forms",
		Title: "Creation Form",
		Body: func(r *views.Request) ([]component.Component, error) {
			action := r.Viewset.NodeEndpointURL(RelationshipsEndpoint, r.Node)
			resolver := views.Resolver(r.Env)
			var withTargets, withoutTargets []component.Component
			for _, rt := range r.Env.Registry.Outgoing(r.Node.Label()) {
				target, ok := r.Env.Registry.NodeType(rt.Target.Label)
				if !ok {
					continue
				}
				candidates, err := r.Env.Store.MatchAll(r.Context(), target, 0, 0)
				if err != nil {
					return nil, err
				}
				form, err := forms.BuildRelationship(rt, resolver,
					forms.WithSourceNode(r.Node),
					forms.WithTargetOptions(candidates...),
					forms.WithAction(action),
				)
				if err != nil {
					return nil, err
				}
				if len(candidates) > 0 {
					withTargets = append(withTargets, form.Collapsible())
				} else {
					withoutTargets = append(withoutTargets, form.Collapsible())
				}
			}
			return append(withTargets, withoutTargets...), nil
		},
	}}
}

func postRelationship(w http.ResponseWriter, r *views.Request) error {
	data, err := postedForm(r.Request)
	if err != nil {
		return err
	}
	tag := data.Get(forms.FieldRelationshipType)
	rt, ok := r.Env.Registry.RelationshipType(tag)
	if !ok {
		return views.NotFound("relationship type %q", tag)
	}

	form, err := forms.BuildRelationship(rt, views.Resolver(r.Env), forms.WithSourceNode(r.Node))
	if err != nil {
		return err
	}
	rel, err := form.ToModel(r.Context(), data)
	if err != nil {
		return err
	}
	if rel.Source.Label() != r.Node.Label() || rel.Source.PP() != r.Node.PP() {
		return fmt.Errorf("%w: relationship source %q is not %q",
			views.ErrIdentityConflict, rel.Source.PP(), r.Node.PP())
	}
	if err := r.Env.Store.MergeRelationship(r.Context(), rel); err != nil {
		return err
	}
	r.Env.Log().Infow("relationship merged", "type", rel.Tag(), "source", rel.Source.PP(), "target", rel.Target.PP())
	return views.Redirect(w, r.Request, r.Viewset.NodeURL(r.Node))
}

func postedForm(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", views.ErrValidation, err)
	}
	return r.PostForm, nil
}
