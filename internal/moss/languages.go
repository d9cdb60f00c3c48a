package moss

// supportedLanguages is the set of language names the MOSS service
// accepts.
var supportedLanguages = map[string]bool{
	"c":          true,
	"cc":         true,
	"java":       true,
	"ml":         true,
	"pascal":     true,
	"ada":        true,
	"lisp":       true,
	"scheme":     true,
	"haskell":    true,
	"fortran":    true,
	"ascii":      true,
	"vhdl":       true,
	"perl":       true,
	"matlab":     true,
	"python":     true,
	"mips":       true,
	"prolog":     true,
	"spice":      true,
	"vb":         true,
	"csharp":     true,
	"modula2":    true,
	"a8086":      true,
	"javascript": true,
	"plsql":      true,
}

// IsSupportedLanguage reports whether MOSS accepts the language name
func IsSupportedLanguage(lang string) bool {
	return supportedLanguages[lang]
}
