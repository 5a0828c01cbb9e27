package protocol

import (
	"errors"

	"hoardgen.ai/internal/sim/catalogs"
	"hoardgen.ai/internal/sim/choose"
	"hoardgen.ai/internal/sim/weighted"
)

const (
	// Reference data.
	ErrDataLoad = "E_DATA_LOAD"

	// Selection engine.
	ErrInvalidDistribution = "E_INVALID_DISTRIBUTION"
	ErrInfeasible          = "E_INFEASIBLE_SELECTION"

	// Output.
	ErrSchema = "E_SCHEMA"

	ErrInternal = "E_INTERNAL"
)

// CodeFor classifies err for ERROR records and log lines.
func CodeFor(err error) string {
	var dle *catalogs.DataLoadError
	var se *SchemaError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &dle):
		return ErrDataLoad
	case errors.Is(err, weighted.ErrInvalidDistribution):
		return ErrInvalidDistribution
	case errors.Is(err, choose.ErrInfeasibleSelection):
		return ErrInfeasible
	case errors.As(err, &se):
		return ErrSchema
	default:
		return ErrInternal
	}
}
