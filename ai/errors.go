// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import "errors"

var (
	// ErrEmbeddingService indicates the embedding service failed, timed out or
	// returned an unusable response. Callers treat it as recoverable.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrDimensionMismatch indicates a vector of unexpected width.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrMissingAPIKey indicates the hosted service was selected without a key.
	ErrMissingAPIKey = errors.New("embedding API key is required")

	// ErrInvalidConfig indicates an AI configuration failed validation.
	ErrInvalidConfig = errors.New("invalid ai config")

	// ErrEmbedderRequired indicates a nil embedder was supplied.
	ErrEmbedderRequired = errors.New("embedder is required")
)
