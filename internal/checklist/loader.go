package checklist

import (
	"context"
	"log/slog"

	"github.com/vbonduro/housecheck/internal/domain"
)

// templateRepository is the subset of store.TemplateStore the Loader requires.
type templateRepository interface {
	GetActive(ctx context.Context, checkType string) (*domain.Template, error)
	GetByID(ctx context.Context, id int64) (*domain.Template, error)
}

// Loader resolves inspection templates. It never fails: any lookup problem is
// logged and answered with the built-in fallback.
type Loader struct {
	templates templateRepository
	logger    *slog.Logger
}

func NewLoader(templates templateRepository, logger *slog.Logger) *Loader {
	return &Loader{templates: templates, logger: logger}
}

// Load returns the active template for checkType. The bool reports whether
// the fallback was used.
func (l *Loader) Load(ctx context.Context, checkType string) (*domain.Template, bool) {
	tpl, err := l.templates.GetActive(ctx, checkType)
	if err != nil {
		l.logger.Error("template load failed, using fallback", "check_type", checkType, "error", err)
		return Fallback(checkType), true
	}
	if tpl == nil || tpl.ItemCount() == 0 {
		l.logger.Warn("no active template, using fallback", "check_type", checkType)
		return Fallback(checkType), true
	}
	return tpl, false
}

// LoadVersion returns the exact template version a session was started
// with. templateID zero means the session was seeded from the fallback.
func (l *Loader) LoadVersion(ctx context.Context, checkType string, templateID int64) (*domain.Template, bool) {
	if templateID == 0 {
		return Fallback(checkType), true
	}
	tpl, err := l.templates.GetByID(ctx, templateID)
	if err != nil {
		l.logger.Error("template version load failed, using fallback", "template_id", templateID, "error", err)
		return Fallback(checkType), true
	}
	if tpl == nil {
		l.logger.Warn("template version missing, using fallback", "template_id", templateID)
		return Fallback(checkType), true
	}
	return tpl, false
}
