package domain

import "fmt"

// ItemKind is the closed set of checklist item kinds. The marker method keeps
// implementations inside this package so switches over kinds stay exhaustive.
type ItemKind interface {
	isItemKind()
}

// CheckItem is a plain yes/no entry.
type CheckItem struct{}

// PhotoItem asks the inspector for photographic evidence.
type PhotoItem struct {
	MinPhotos int
}

// NoteItem asks the inspector for a written observation.
type NoteItem struct{}

func (CheckItem) isItemKind() {}
func (PhotoItem) isItemKind() {}
func (NoteItem) isItemKind()  {}

const (
	kindCheck = "check"
	kindPhoto = "photo"
	kindNote  = "note"
)

// KindName returns the persisted name of k.
func KindName(k ItemKind) string {
	switch k.(type) {
	case CheckItem:
		return kindCheck
	case PhotoItem:
		return kindPhoto
	case NoteItem:
		return kindNote
	default:
		panic(fmt.Sprintf("domain: unhandled item kind %T", k))
	}
}

// ParseItemKind converts a persisted kind name back into an ItemKind.
// minPhotos is only meaningful for photo items.
func ParseItemKind(name string, minPhotos int) (ItemKind, error) {
	switch name {
	case kindCheck, "":
		return CheckItem{}, nil
	case kindPhoto:
		if minPhotos < 1 {
			minPhotos = 1
		}
		return PhotoItem{MinPhotos: minPhotos}, nil
	case kindNote:
		return NoteItem{}, nil
	default:
		return nil, fmt.Errorf("unknown item kind %q", name)
	}
}

// MinPhotos returns the photo requirement of k, zero for non-photo kinds.
func MinPhotos(k ItemKind) int {
	if p, ok := k.(PhotoItem); ok {
		return p.MinPhotos
	}
	return 0
}

// KindInput names the input control a front end should render for k.
func KindInput(k ItemKind) string {
	switch k.(type) {
	case CheckItem:
		return "checkbox"
	case PhotoItem:
		return "photo"
	case NoteItem:
		return "text"
	default:
		panic(fmt.Sprintf("domain: unhandled item kind %T", k))
	}
}

// KindHint describes what an inspector still has to do for an unmet item of kind k.
func KindHint(k ItemKind) string {
	switch k := k.(type) {
	case CheckItem:
		return "mark as checked"
	case PhotoItem:
		if k.MinPhotos > 1 {
			return fmt.Sprintf("attach %d photos and mark as checked", k.MinPhotos)
		}
		return "attach a photo and mark as checked"
	case NoteItem:
		return "add a note and mark as checked"
	default:
		panic(fmt.Sprintf("domain: unhandled item kind %T", k))
	}
}
