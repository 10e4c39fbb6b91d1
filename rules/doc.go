// Package rules provides reusable cross-field validators for skema schemas.
//
// Conditional rules run checks only when a field comparison holds:
//
//	s := g.Object("Patient").
//	    Field("age", g.Int()).
//	    Field("contact_details", g.StringMap()).
//	    Validate(rules.If("age", rules.Gt, 60).Then(
//	        rules.Message("patients older than 60 must have an emergency contact",
//	            rules.RequireKey("contact_details", "emergency")),
//	    )).
//	    MustBuild()
//
// CEL rules express the same predicate as a Common Expression Language
// expression over the record fields:
//
//	rules.MustCEL("emergency", `age <= 60 || "emergency" in contact_details`, "emergency contact required")
package rules
