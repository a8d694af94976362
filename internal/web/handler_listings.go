package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/vbonduro/clawmap/internal/domain"
	"github.com/vbonduro/clawmap/internal/identity"
	"github.com/vbonduro/clawmap/internal/render"
)

func (s *Server) handleListHelp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := identity.FromContext(ctx)
	filter := filterParam(r)
	_ = s.app.Help.Ensure(ctx)

	if isHTMX(r) {
		s.writeHelpList(w, filter, viewer.ID)
		return
	}

	var list bytes.Buffer
	if err := render.HelpList(&list, s.app.HelpView(filter), viewer.ID); err != nil {
		s.writeError(w, r, "render help board", err)
		return
	}
	if err := s.renderPage(w,
		map[string]any{
			"ActiveNav": "help",
			"Viewer":    viewer,
			"Filter":    filter,
			"List":      template.HTML(list.String()),
		},
		"base.html", "pages/help.html",
	); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

func (s *Server) handleCreateHelp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := identity.FromContext(ctx)
	if _, err := s.app.Help.Create(ctx, viewer, helpFromForm(r)); err != nil {
		s.writeError(w, r, "create listing", err)
		return
	}
	s.writeHelpList(w, filterParam(r), viewer.ID)
}

func (s *Server) handleUpdateHelp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := identity.FromContext(ctx)
	ok, err := s.app.Help.Update(ctx, viewer, r.PathValue("id"), helpFromForm(r))
	if err != nil {
		s.writeError(w, r, "update listing", err)
		return
	}
	if !ok {
		notOwned(w, "listing")
		return
	}
	s.writeHelpList(w, filterParam(r), viewer.ID)
}

func (s *Server) handleDeleteHelp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ok, err := s.app.Help.Delete(ctx, identity.FromContext(ctx), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, "delete listing", err)
		return
	}
	if !ok {
		notOwned(w, "listing")
		return
	}
	w.Header().Set("HX-Redirect", "/help")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeHelpList(w http.ResponseWriter, filter, viewerID string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.HelpList(w, s.app.HelpView(filter), viewerID); err != nil {
		s.logger.Error("render help list", "error", err)
	}
}

func helpFromForm(r *http.Request) domain.HelpListing {
	return domain.HelpListing{
		Type:        domain.ListingType(r.FormValue("type")),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Skills:      r.FormValue("skills"),
		Contact:     r.FormValue("contact"),
	}
}

func (s *Server) handleListCreations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := identity.FromContext(ctx)
	_ = s.app.Creations.Ensure(ctx)

	if isHTMX(r) {
		s.writeCreationList(w, viewer.ID)
		return
	}

	var list bytes.Buffer
	if err := render.CreationList(&list, s.app.Creations.Snapshot(), viewer.ID); err != nil {
		s.writeError(w, r, "render creations", err)
		return
	}
	if err := s.renderPage(w,
		map[string]any{
			"ActiveNav": "creations",
			"Viewer":    viewer,
			"List":      template.HTML(list.String()),
		},
		"base.html", "pages/creations.html",
	); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

func (s *Server) handleCreateCreation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := identity.FromContext(ctx)
	if _, err := s.app.Creations.Create(ctx, viewer, creationFromForm(r)); err != nil {
		s.writeError(w, r, "create creation", err)
		return
	}
	s.writeCreationList(w, viewer.ID)
}

func (s *Server) handleUpdateCreation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := identity.FromContext(ctx)
	ok, err := s.app.Creations.Update(ctx, viewer, r.PathValue("id"), creationFromForm(r))
	if err != nil {
		s.writeError(w, r, "update creation", err)
		return
	}
	if !ok {
		notOwned(w, "creation")
		return
	}
	s.writeCreationList(w, viewer.ID)
}

func (s *Server) handleDeleteCreation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ok, err := s.app.Creations.Delete(ctx, identity.FromContext(ctx), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, "delete creation", err)
		return
	}
	if !ok {
		notOwned(w, "creation")
		return
	}
	w.Header().Set("HX-Redirect", "/creations")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeCreationList(w http.ResponseWriter, viewerID string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.CreationList(w, s.app.Creations.Snapshot(), viewerID); err != nil {
		s.logger.Error("render creation list", "error", err)
	}
}

func creationFromForm(r *http.Request) domain.Creation {
	return domain.Creation{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		ImageURL:    r.FormValue("image_url"),
		Link:        r.FormValue("link"),
	}
}
