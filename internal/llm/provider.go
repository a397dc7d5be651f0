// Package llm runs corrected page text through a language model for residual
// cleanup that no substitution table can express. The pass is optional and
// never feeds back into mining or boundary detection.
package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Clean rewrites one page of extracted text per the cleaning rules.
	Clean(ctx context.Context, req CleanRequest) (*CleanResponse, error)

	// IsAvailable checks if the provider is properly configured and
	// reachable.
	IsAvailable(ctx context.Context) bool
}

// CleanRequest contains the input for a cleanup call.
type CleanRequest struct {
	// Text is the glyph-corrected page text.
	Text string

	// Model overrides the configured model when non-empty.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// CleanResponse contains the cleaned output.
type CleanResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai" or "" (disabled).
	Provider string

	// Model name; gpt-4 is what the cleanup prompt was tuned against.
	Model string

	// APIKey for the provider.
	APIKey string

	// BaseURL for custom endpoints.
	BaseURL string

	// Timeout for API requests, in seconds.
	Timeout int

	// MaxTokens for response generation.
	MaxTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "", // disabled by default
		Model:     "gpt-4",
		Timeout:   60,
		MaxTokens: 4000,
	}
}

// cleanerSystemPrompt instructs the model to normalize IAST and whitespace
// without translating or reordering anything.
const cleanerSystemPrompt = `You are a text cleaner and Sanskrit transliteration corrector.

You will be given text extracted from scanned spiritual books. The text may contain three kinds of content:

1. **English commentary/translation**
   - Leave English text untouched except:
     • Remove extra spaces, duplicate whitespace, and line-break artifacts.
     • Fix obvious OCR artifacts (e.g., random % or symbols in English words).

2. **Roman transliteration of Sanskrit (IAST-like but corrupted)**
   - Correct transliteration errors into standard IAST form.
   - Preserve Sanskrit words in Roman script with proper diacritics (ā, ī, ū, ṛ, ṝ, ḷ, ṃ, ṇ, ñ, ś, ṣ, etc.).
   - Do not translate into English.
   - Example: "harinṛma" → "harināma"; "aparṛdha" → "aparādha"; "saṣjaya" → "sañjaya".

3. **Devanāgarī blocks (Hindi/Sanskrit characters)**
   - If the input contains Devanāgarī script, preserve it as correct Devanāgarī.
   - Fix OCR garbling where possible, keeping the verse intact.
   - Do NOT convert Devanāgarī into Roman transliteration or English. Leave it in Devanāgarī.

---

### Output Rules
- Keep the output in the **same structure** as input (don't merge or reorder blocks).
- Only fix spacing, diacritics, and OCR errors as described.
- Do not add explanations, translations, or commentary — return **cleaned text only**.`
