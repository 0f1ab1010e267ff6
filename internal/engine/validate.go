package engine

import (
	"strings"

	"github.com/trustcircles/backend/internal/models"
)

// Boundary validation for caller-supplied text fields. Length caps match
// the wire contract: 64-char name, 32-char kind tag, 256-char description.

func validateCircleName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.E(models.CodeInvalidParams, "circle name must not be empty")
	}
	if len(name) > models.MaxCircleNameLen {
		return models.E(models.CodeInvalidParams, "circle name exceeds %d characters", models.MaxCircleNameLen)
	}
	return nil
}

func validateProposalKind(kind string) error {
	if len(kind) > models.MaxKindLen {
		return models.E(models.CodeInvalidParams, "proposal kind exceeds %d characters", models.MaxKindLen)
	}
	if !models.ValidProposalKind(kind) {
		return models.E(models.CodeInvalidParams, "unrecognized proposal kind %q", kind)
	}
	return nil
}

func validateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return models.E(models.CodeInvalidParams, "description must not be empty")
	}
	if len(desc) > models.MaxDescriptionLen {
		return models.E(models.CodeInvalidParams, "description exceeds %d characters", models.MaxDescriptionLen)
	}
	return nil
}
