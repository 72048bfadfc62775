package htmldown

import (
	"fmt"
	"regexp"
)

// Preprocessor transforms a raw document before any conversion happens.
type Preprocessor interface {
	Preprocess(document string) (string, error)
}

// PreprocessorFunc adapts a function to the Preprocessor interface.
type PreprocessorFunc func(document string) (string, error)

// Preprocess calls f(document).
func (f PreprocessorFunc) Preprocess(document string) (string, error) {
	return f(document)
}

type namedPreprocessor struct {
	name string
	hook Preprocessor
}

// runHooks applies the hooks in order. The first failing hook aborts the
// run with a *HookError, including a hook that panics.
func runHooks(hooks []namedPreprocessor, document string) (out string, err error) {
	out = document
	for i, h := range hooks {
		out, err = callHook(i, h, out)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

func callHook(index int, h namedPreprocessor, document string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HookError{Index: index, Name: h.name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = h.hook.Preprocess(document)
	if err != nil {
		return "", &HookError{Index: index, Name: h.name, Err: err}
	}
	return out, nil
}

var reShortcode = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// expandShortcodes replaces known [[name]] tokens in a single pass.
// Replacement text is never scanned again and unknown tokens are kept.
func expandShortcodes(shortcodes ShortcodeMap) func(string) string {
	return func(s string) string {
		if len(shortcodes) == 0 {
			return s
		}
		return reShortcode.ReplaceAllStringFunc(s, func(token string) string {
			if v, ok := shortcodes[token[2:len(token)-2]]; ok {
				return v
			}
			return token
		})
	}
}
