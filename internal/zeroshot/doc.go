// Package zeroshot scores free text against arbitrary candidate labels.
//
// Three backends implement Pipeline: a local NLI model run through ONNX
// Runtime, an OpenAI-compatible chat endpoint, and a deterministic keyword
// scorer. Callers normally go through a Handle, which loads the backend
// lazily and exactly once.
package zeroshot
