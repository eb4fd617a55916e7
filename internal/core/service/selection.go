package service

import "github.com/lhchen/storefront/internal/core/domain"

// SelectionModel tracks which variant keys are checked for checkout. It is
// in-memory and derived; the cart service keeps it consistent with the stored
// cart (membership checks on select, pruning on removal). Callers serialize
// access, the model itself does not lock.
type SelectionModel struct {
	keys map[domain.VariantKey]bool
}

func NewSelectionModel() *SelectionModel {
	return &SelectionModel{keys: make(map[domain.VariantKey]bool)}
}

func (m *SelectionModel) Set(key domain.VariantKey, selected bool) {
	if selected {
		m.keys[key] = true
	} else {
		delete(m.keys, key)
	}
}

func (m *SelectionModel) IsSelected(key domain.VariantKey) bool {
	return m.keys[key]
}

func (m *SelectionModel) SelectedKeys() []domain.VariantKey {
	out := make([]domain.VariantKey, 0, len(m.keys))
	for k := range m.keys {
		out = append(out, k)
	}
	return out
}

// Selected returns the live set for read-only use by pricing.
func (m *SelectionModel) Selected() map[domain.VariantKey]bool {
	return m.keys
}

// Prune drops every selected key not present in valid.
func (m *SelectionModel) Prune(valid map[domain.VariantKey]bool) {
	for k := range m.keys {
		if !valid[k] {
			delete(m.keys, k)
		}
	}
}

func (m *SelectionModel) Reset() {
	m.keys = make(map[domain.VariantKey]bool)
}
