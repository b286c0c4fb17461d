package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/nguyendm/salemarket-backend/pkg/enums"
)

// RoleList is a set of marketplace roles stored as a Postgres text[] column.
type RoleList []enums.Role

// Has reports whether the list contains the given role.
func (l RoleList) Has(role enums.Role) bool {
	for _, candidate := range l {
		if candidate == role {
			return true
		}
	}
	return false
}

func (l *RoleList) Scan(src any) error {
	if src == nil {
		*l = RoleList{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return l.parseFromString(v)
	case []byte:
		return l.parseFromString(string(v))
	default:
		return fmt.Errorf("RoleList: unsupported Scan type %T", src)
	}
}

func (l RoleList) Value() (driver.Value, error) {
	// Postgres array literal: {buyer,seller}
	if len(l) == 0 {
		return "{}", nil
	}
	parts := make([]string, 0, len(l))
	for _, role := range l {
		parts = append(parts, string(role))
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

func (l *RoleList) parseFromString(s string) error {
	s = strings.TrimSpace(s)
	if s == "{}" || s == "" {
		*l = RoleList{}
		return nil
	}
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if strings.TrimSpace(s) == "" {
		*l = RoleList{}
		return nil
	}

	raw := strings.Split(s, ",")
	out := make([]enums.Role, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(strings.Trim(r, `"`))
		role, err := enums.ParseRole(r)
		if err != nil {
			return fmt.Errorf("RoleList: %w", err)
		}
		out = append(out, role)
	}
	*l = RoleList(out)
	return nil
}
