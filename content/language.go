package content

import (
	"path"
	"strings"
)

// Family groups languages that minify the same way.
type Family int

const (
	// FamilyText collapses blank-line runs and trailing whitespace only.
	FamilyText Family = iota
	// FamilyCStyle strips // and /* */ comments.
	FamilyCStyle
	// FamilyCSS strips /* */ comments.
	FamilyCSS
	// FamilyHash strips # comments.
	FamilyHash
	// FamilyJSON compacts the document.
	FamilyJSON
	// FamilyHTML removes comments and collapses text whitespace.
	FamilyHTML
)

// Language describes how a file is minified.
type Language struct {
	Name   string
	Family Family

	// Indented languages keep leading whitespace.
	Indented bool

	// Backtick strings may span lines (Go raw strings, JS templates).
	Backtick bool

	// TripleQuote strings may span lines (Python).
	TripleQuote bool

	// ScriptCheck re-parses the minified output as JavaScript.
	ScriptCheck bool

	// Markup files are also scanned for embedded <script> blocks.
	Markup bool
}

var languages = map[string]Language{
	".go":    {Name: "go", Family: FamilyCStyle, Backtick: true},
	".c":     {Name: "c", Family: FamilyCStyle},
	".h":     {Name: "c", Family: FamilyCStyle},
	".cc":    {Name: "cpp", Family: FamilyCStyle},
	".cpp":   {Name: "cpp", Family: FamilyCStyle},
	".hpp":   {Name: "cpp", Family: FamilyCStyle},
	".cs":    {Name: "csharp", Family: FamilyCStyle},
	".java":  {Name: "java", Family: FamilyCStyle},
	".kt":    {Name: "kotlin", Family: FamilyCStyle},
	".scala": {Name: "scala", Family: FamilyCStyle},
	".swift": {Name: "swift", Family: FamilyCStyle},
	".rs":    {Name: "rust", Family: FamilyCStyle},
	".dart":  {Name: "dart", Family: FamilyCStyle},
	".js":    {Name: "javascript", Family: FamilyCStyle, Backtick: true, ScriptCheck: true},
	".mjs":   {Name: "javascript", Family: FamilyCStyle, Backtick: true, ScriptCheck: true},
	".cjs":   {Name: "javascript", Family: FamilyCStyle, Backtick: true, ScriptCheck: true},
	".jsx":   {Name: "javascript", Family: FamilyCStyle, Backtick: true},
	".ts":    {Name: "typescript", Family: FamilyCStyle, Backtick: true},
	".tsx":   {Name: "typescript", Family: FamilyCStyle, Backtick: true},
	".css":   {Name: "css", Family: FamilyCSS},
	".scss":  {Name: "css", Family: FamilyCSS},
	".less":  {Name: "css", Family: FamilyCSS},

	".py":   {Name: "python", Family: FamilyHash, Indented: true, TripleQuote: true},
	".rb":   {Name: "ruby", Family: FamilyHash},
	".sh":   {Name: "shell", Family: FamilyHash},
	".bash": {Name: "shell", Family: FamilyHash},
	".zsh":  {Name: "shell", Family: FamilyHash},
	".pl":   {Name: "perl", Family: FamilyHash},
	".r":    {Name: "r", Family: FamilyHash},
	".toml": {Name: "toml", Family: FamilyHash},
	".yaml": {Name: "yaml", Family: FamilyHash, Indented: true},
	".yml":  {Name: "yaml", Family: FamilyHash, Indented: true},
	".mk":   {Name: "make", Family: FamilyHash, Indented: true},

	".json": {Name: "json", Family: FamilyJSON},

	".html":  {Name: "html", Family: FamilyHTML, Markup: true},
	".htm":   {Name: "html", Family: FamilyHTML, Markup: true},
	".xhtml": {Name: "html", Family: FamilyHTML, Markup: true},

	".md":       {Name: "markdown", Family: FamilyText, Indented: true, Markup: true},
	".markdown": {Name: "markdown", Family: FamilyText, Indented: true, Markup: true},
	".mdx":      {Name: "markdown", Family: FamilyText, Indented: true, Markup: true},
	".txt":      {Name: "text", Family: FamilyText, Indented: true},
	".rst":      {Name: "text", Family: FamilyText, Indented: true},
}

var baseNames = map[string]Language{
	"Makefile":   {Name: "make", Family: FamilyHash, Indented: true},
	"Dockerfile": {Name: "dockerfile", Family: FamilyHash},
	".gitignore": {Name: "gitignore", Family: FamilyHash},
}

// LanguageFor resolves the language of a file path. Unknown extensions are
// treated as plain text with indentation kept.
func LanguageFor(p string) Language {
	base := path.Base(p)
	if lang, ok := baseNames[base]; ok {
		return lang
	}
	if lang, ok := languages[strings.ToLower(path.Ext(base))]; ok {
		return lang
	}
	return Language{Name: "text", Family: FamilyText, Indented: true}
}
