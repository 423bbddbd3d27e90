package validation

// Payload schema names.
const (
	SchemaApplicationIntake    = "application_intake"
	SchemaClaimIntake          = "claim_intake"
	SchemaPaymentFinalize      = "payment_finalize"
	SchemaReviewIntake         = "review_intake"
	SchemaNewsletterSubscribe  = "newsletter_subscribe"
	SchemaQuoteRequest         = "quote_request"
	SchemaBlogIntake           = "blog_intake"
	SchemaApplicationStatusSet = "application_status_set"
)

var payloadSchemas = map[string]string{
	SchemaApplicationIntake: `{
		"type": "object",
		"required": ["policyId", "fullName", "email", "address", "nid", "nominee", "nomineeRelation", "healthCondition"],
		"properties": {
			"policyId":        {"type": "string", "minLength": 1},
			"fullName":        {"type": "string", "minLength": 1, "maxLength": 120},
			"email":           {"type": "string", "format": "email"},
			"address":         {"type": "string", "minLength": 1, "maxLength": 300},
			"nid":             {"type": "string", "minLength": 4, "maxLength": 40},
			"nominee":         {"type": "string", "minLength": 1, "maxLength": 120},
			"nomineeRelation": {"type": "string", "minLength": 1, "maxLength": 60},
			"healthCondition": {"type": "string", "maxLength": 2000},
			"estimatedPremium": {"type": "number", "minimum": 0}
		},
		"additionalProperties": false
	}`,

	SchemaClaimIntake: `{
		"type": "object",
		"required": ["applicationId", "reason"],
		"properties": {
			"applicationId": {"type": "string", "minLength": 1},
			"reason":        {"type": "string", "minLength": 1, "maxLength": 2000},
			"documentUrl":   {"type": "string", "format": "uri"}
		},
		"additionalProperties": false
	}`,

	SchemaPaymentFinalize: `{
		"type": "object",
		"required": ["applicationId", "chargeId"],
		"properties": {
			"applicationId": {"type": "string", "minLength": 1},
			"chargeId":      {"type": "string", "minLength": 1}
		},
		"additionalProperties": false
	}`,

	SchemaReviewIntake: `{
		"type": "object",
		"required": ["policyId", "rating", "comment"],
		"properties": {
			"policyId": {"type": "string", "minLength": 1},
			"rating":   {"type": "integer", "minimum": 1, "maximum": 5},
			"comment":  {"type": "string", "minLength": 1, "maxLength": 1000}
		},
		"additionalProperties": false
	}`,

	SchemaNewsletterSubscribe: `{
		"type": "object",
		"required": ["name", "email"],
		"properties": {
			"name":  {"type": "string", "minLength": 1, "maxLength": 120},
			"email": {"type": "string", "format": "email"}
		},
		"additionalProperties": false
	}`,

	SchemaQuoteRequest: `{
		"type": "object",
		"required": ["policyId", "age", "coverageAmount", "durationYears"],
		"properties": {
			"policyId":       {"type": "string", "minLength": 1},
			"age":            {"type": "integer", "minimum": 18, "maximum": 100},
			"gender":         {"type": "string", "enum": ["male", "female", "other"]},
			"coverageAmount": {"type": "number", "minimum": 1},
			"durationYears":  {"type": "integer", "minimum": 1, "maximum": 60},
			"smoker":         {"type": "boolean"}
		},
		"additionalProperties": false
	}`,

	SchemaBlogIntake: `{
		"type": "object",
		"required": ["title", "content"],
		"properties": {
			"title":    {"type": "string", "minLength": 1, "maxLength": 200},
			"content":  {"type": "string", "minLength": 1},
			"imageUrl": {"type": "string", "format": "uri"},
			"summary":  {"type": "string", "maxLength": 500}
		},
		"additionalProperties": false
	}`,

	SchemaApplicationStatusSet: `{
		"type": "object",
		"required": ["status", "version"],
		"properties": {
			"status":   {"type": "string", "enum": ["Pending", "Approved", "Rejected"]},
			"version":  {"type": "integer", "minimum": 1},
			"feedback": {"type": "string", "maxLength": 2000}
		},
		"additionalProperties": false
	}`,
}
