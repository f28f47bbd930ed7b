package asnlex

// Kind implements enums for tokens
type Kind int

const (
	UNKNOWN Kind = iota // recoverable lexical error; the diagnostic explains it

	AMPERSAND    // &
	ASSIGNMENT   // ::=
	ASTERISK     // *
	AT           // @
	CARET        // ^
	COLON        // :
	COMMA        // ,
	DASH         // -
	DOT          // .
	DOTDOT       // ..
	ELLIPSIS     // ...
	EQUALS       // =
	EXCLAMATION  // !
	GREATER      // >
	LEFTBRACE    // {
	LEFTBRACKET  // [
	LEFTPAREN    // (
	LEFTVERSION  // [[
	LESS         // <
	PIPE         // |
	RIGHTBRACE   // }
	RIGHTBRACKET // ]
	RIGHTPAREN   // )
	RIGHTVERSION // ]]
	SEMICOLON    // ;
	SLASH        // /
	XMLENDTAG    // </
	XMLSELFCLOSE // />

	BString                  // '0101'B
	CharacterOrOidIriLiteral // "..." resolved later to a character string or an OID-IRI
	HString                  // '0F'H
	Ident
	Keyword
	Number
	RealNumber

	EndOfInput // end of input
)

var kindNames = [...]string{
	UNKNOWN:                  "UNKNOWN",
	AMPERSAND:                "AMPERSAND",
	ASSIGNMENT:               "ASSIGNMENT",
	ASTERISK:                 "ASTERISK",
	AT:                       "AT",
	CARET:                    "CARET",
	COLON:                    "COLON",
	COMMA:                    "COMMA",
	DASH:                     "DASH",
	DOT:                      "DOT",
	DOTDOT:                   "DOTDOT",
	ELLIPSIS:                 "ELLIPSIS",
	EQUALS:                   "EQUALS",
	EXCLAMATION:              "EXCLAMATION",
	GREATER:                  "GREATER",
	LEFTBRACE:                "LEFTBRACE",
	LEFTBRACKET:              "LEFTBRACKET",
	LEFTPAREN:                "LEFTPAREN",
	LEFTVERSION:              "LEFTVERSION",
	LESS:                     "LESS",
	PIPE:                     "PIPE",
	RIGHTBRACE:               "RIGHTBRACE",
	RIGHTBRACKET:             "RIGHTBRACKET",
	RIGHTPAREN:               "RIGHTPAREN",
	RIGHTVERSION:             "RIGHTVERSION",
	SEMICOLON:                "SEMICOLON",
	SLASH:                    "SLASH",
	XMLENDTAG:                "XMLENDTAG",
	XMLSELFCLOSE:             "XMLSELFCLOSE",
	BString:                  "BString",
	CharacterOrOidIriLiteral: "CharacterOrOidIriLiteral",
	HString:                  "HString",
	Ident:                    "Identifier",
	Keyword:                  "Keyword",
	Number:                   "Number",
	RealNumber:               "RealNumber",
	EndOfInput:               "EndOfInput",
}

func (k Kind) String() string {
	if 0 <= k && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsPunctuation reports whether k is one of the fixed punctuation kinds.
func (k Kind) IsPunctuation() bool {
	return AMPERSAND <= k && k <= XMLSELFCLOSE
}

// operators is the fixed punctuation set, longest spelling first within
// each leading byte so that the scanner can take the first match.
var operators = []struct {
	text string
	kind Kind
}{
	{"::=", ASSIGNMENT},
	{":", COLON},
	{"...", ELLIPSIS},
	{"..", DOTDOT},
	{".", DOT},
	{"[[", LEFTVERSION},
	{"[", LEFTBRACKET},
	{"]]", RIGHTVERSION},
	{"]", RIGHTBRACKET},
	{"</", XMLENDTAG},
	{"<", LESS},
	{"/>", XMLSELFCLOSE},
	{"/", SLASH},
	{"&", AMPERSAND},
	{"*", ASTERISK},
	{"@", AT},
	{"^", CARET},
	{",", COMMA},
	{"-", DASH},
	{"=", EQUALS},
	{"!", EXCLAMATION},
	{">", GREATER},
	{"{", LEFTBRACE},
	{"(", LEFTPAREN},
	{"|", PIPE},
	{"}", RIGHTBRACE},
	{")", RIGHTPAREN},
	{";", SEMICOLON},
}
