// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package ml implements inference over the pre-trained crop classifiers.
//
// Model artifacts are JSON files produced by an offline training pipeline
// and loaded once at process startup into an immutable Registry. The
// registry is passed explicitly to the pipeline instead of living in
// package-level singletons, so tests can inject fixture models.
//
// # Artifact invariant
//
// The scaler and label encoder must be the exact ones fitted jointly with
// the classifiers. Mixing artifacts from different training runs silently
// skews feature scaling and label decoding; the registry therefore loads
// all artifacts from a single directory as one unit.
//
// # Models
//
//   - RandomForest: ensemble of decision trees, class distribution stored
//     at every node (leaves for prediction, internal nodes for path
//     attribution).
//   - GaussianNB: class priors plus per-class feature means/variances.
//   - IsolationForest: unsupervised outlier detector used by the
//     screening layer; fitted lazily on synthetic in-range samples when
//     no artifact exists.
package ml
