// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the docstudy data directory.
//
// Adapters:
//   - ConfigStore: TOML configuration with environment overrides
//   - PromptStore: user-editable LLM prompt templates
package file
