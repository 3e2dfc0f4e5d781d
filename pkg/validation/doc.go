// Package validation checks user records before they reach the users resource.
//
// Two layers share the same FieldError and Result types:
//   - Field rules (ValidateUser, ValidateField) run in the form before submit and
//     produce one human-readable message per failing field.
//   - BodyValidator checks raw JSON request bodies against the user JSON Schema and
//     then applies the field rules. The local users API uses it.
//
// Phone numbers must look like +994556666666: a single leading '+', digits only,
// exactly 13 characters. Emails use a conservative local@domain.tld pattern.
package validation
