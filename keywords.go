package asnlex

import "sort"

// reservedWords are the X.680 reserved words, in canonical form.
// Matching is exact: reserved words are case sensitive.
var reservedWords = []string{
	"ABSENT",
	"ABSTRACT-SYNTAX",
	"ALL",
	"APPLICATION",
	"AUTOMATIC",
	"BEGIN",
	"BIT",
	"BMPString",
	"BOOLEAN",
	"BY",
	"CHARACTER",
	"CHOICE",
	"CLASS",
	"COMPONENT",
	"COMPONENTS",
	"CONSTRAINED",
	"CONTAINING",
	"DATE",
	"DATE-TIME",
	"DEFAULT",
	"DEFINITIONS",
	"DURATION",
	"EMBEDDED",
	"ENCODED",
	"ENCODING-CONTROL",
	"END",
	"ENUMERATED",
	"EXCEPT",
	"EXPLICIT",
	"EXPORTS",
	"EXTENSIBILITY",
	"EXTERNAL",
	"FALSE",
	"FROM",
	"GeneralizedTime",
	"GeneralString",
	"GraphicString",
	"IA5String",
	"IDENTIFIER",
	"IMPLICIT",
	"IMPLIED",
	"IMPORTS",
	"INCLUDES",
	"INSTANCE",
	"INSTRUCTIONS",
	"INTEGER",
	"INTERSECTION",
	"ISO646String",
	"MAX",
	"MIN",
	"MINUS-INFINITY",
	"NOT-A-NUMBER",
	"NULL",
	"NumericString",
	"OBJECT",
	"ObjectDescriptor",
	"OCTET",
	"OF",
	"OID-IRI",
	"OPTIONAL",
	"PATTERN",
	"PDV",
	"PLUS-INFINITY",
	"PRESENT",
	"PrintableString",
	"PRIVATE",
	"REAL",
	"RELATIVE-OID",
	"RELATIVE-OID-IRI",
	"SEQUENCE",
	"SET",
	"SETTINGS",
	"SIZE",
	"STRING",
	"SYNTAX",
	"T61String",
	"TAGS",
	"TeletexString",
	"TIME",
	"TIME-OF-DAY",
	"TRUE",
	"TYPE-IDENTIFIER",
	"UNION",
	"UNIQUE",
	"UNIVERSAL",
	"UniversalString",
	"UTCTime",
	"UTF8String",
	"VideotexString",
	"VisibleString",
	"WITH",
}

var keywords = func() map[string]bool {
	m := make(map[string]bool, len(reservedWords))
	for _, word := range reservedWords {
		m[word] = true
	}
	return m
}()

// IsKeyword reports whether the canonical identifier text is a reserved word.
func IsKeyword(canonical string) bool {
	return keywords[canonical]
}

// Keywords returns the reserved words in sorted order.
func Keywords() []string {
	list := make([]string, len(reservedWords))
	copy(list, reservedWords)
	sort.Strings(list)
	return list
}
