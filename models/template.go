// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Template is a reusable workout plan: an ordered list of exercises with
// target sets, reps and weights. Only the attributes that travel through the
// sync boundary are modelled here.
type Template struct {
	// ID is the stable identifier shared between the local database and the
	// remote record store (RemoteRecord.RecordName).
	ID string `json:"id"`

	Name      string             `json:"name"`
	Notes     string             `json:"notes,omitempty"`
	Exercises []TemplateExercise `json:"exercises,omitempty"`
}

// TemplateExercise is one planned exercise inside a template.
type TemplateExercise struct {
	Name         string  `json:"name"`
	Sets         int     `json:"sets"`
	Reps         int     `json:"reps"`
	TargetWeight float64 `json:"target_weight,omitempty"`
	RestSeconds  int     `json:"rest_seconds,omitempty"`
}
