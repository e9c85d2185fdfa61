// Package model loads the pretrained enrollment model and scores feature vectors.
//
// Training happens offline; this package only reads the resulting artifact. Two
// artifact formats are supported, selected by file extension:
//
//   - .yaml / .yml: a linear model (intercept plus one coefficient per feature).
//   - .json: an XGBoost regression ensemble exported with
//     dump_model(dump_format="json") and wrapped with its feature names and
//     base_score.
//
// Every model must be trained on EnrollmentSchema. Scoring a FeatureVector whose
// names or order differ from the model's returns ErrSchemaMismatch.
package model
