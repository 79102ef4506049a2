package handler

import "nicgate/internal/nic/domain"

// ValidateResponse mirrors the engine result. Reason and Failure appear only
// for invalid outcomes; Gender and DateOfBirth whenever the number decoded.
type ValidateResponse struct {
	Valid       bool   `json:"valid"`
	Reason      string `json:"reason,omitempty"`
	Failure     string `json:"failure,omitempty"`
	Format      string `json:"format"`
	Gender      string `json:"gender,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

func FromResult(r *domain.Result) ValidateResponse {
	return ValidateResponse{
		Valid:       r.Valid(),
		Reason:      r.Reason,
		Failure:     string(r.Failure),
		Format:      r.Format.String(),
		Gender:      string(r.Gender),
		DateOfBirth: r.DateOfBirth,
	}
}

type DecodeResponse struct {
	Format      string `json:"format"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
}

func FromDerived(d domain.DerivedIdentity) DecodeResponse {
	return DecodeResponse{
		Format:      d.Format().String(),
		Gender:      string(d.Gender),
		DateOfBirth: d.DateOfBirthString(),
	}
}
