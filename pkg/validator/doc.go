// Package validator builds declarative request validation out of small Rule
// values.
//
// Each rule constructor captures the value to check and the FieldError to
// report. Apply evaluates all rules and aggregates failures into Errors, which
// implements error and serialises as a list of field/message/code objects:
//
//	err := validator.Apply(
//		validator.Required("email", req.Email),
//		validator.Email("email", req.Email),
//		validator.MinLen("password", req.Password, 8),
//	)
//	if errs := validator.Extract(err); errs != nil {
//		// respond with 422 and errs
//	}
package validator
