package parser

// TokenKind classifies scanner output. Block constructs (property blocks,
// context blocks, directives, template bodies) are single tokens carrying
// their raw body text; the analyzer descends into bodies recursively. This
// keeps the scan a single left-to-right pass with bounded lookahead.
type TokenKind int

const (
	TokenEntity        TokenKind = iota // @type{id}
	TokenReference                      // #id
	TokenPropertyBlock                  // :p{...}
	TokenTagBlock                       // :t{...}
	TokenRelOp                          // -> <- <-> -- ==> ~>
	TokenInherit                        // ^parent+parent2\exception
	TokenContext                        // [name]{...}
	TokenQuantum                        // q:kind{label}(w)[members]
	TokenPartitionRel                   // ><
	TokenDirective                      // $name{...}
	TokenTemplateDef                    // %name(params){...}
	TokenTemplateUse                    // %name(args)
	TokenRefList                        // (#a,#b)
)

var tokenKindNames = map[TokenKind]string{
	TokenEntity:        "Entity",
	TokenReference:     "Reference",
	TokenPropertyBlock: "PropertyBlock",
	TokenTagBlock:      "TagBlock",
	TokenRelOp:         "RelationOperator",
	TokenInherit:       "InheritanceMarker",
	TokenContext:       "ContextBlock",
	TokenQuantum:       "QuantumBlock",
	TokenPartitionRel:  "PartitionRelation",
	TokenDirective:     "Directive",
	TokenTemplateDef:   "TemplateDef",
	TokenTemplateUse:   "TemplateUse",
	TokenRefList:       "ReferenceList",
}

func (k TokenKind) String() string {
	if n, ok := tokenKindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Token is one scanned construct with its source range and decoded payload.
// Which payload fields are set depends on Kind.
type Token struct {
	Kind  TokenKind
	Text  string // raw source slice
	Range Range

	Name       string   // entity type, context name, directive name, template name, quantum label
	ID         string   // entity id, reference id
	Body       string   // raw block body for PropertyBlock/TagBlock/Context/Directive/TemplateDef
	Args       []string // template params/args, reflist ids, inheritance parents
	Exceptions []string // inheritance exception keys
	QuantKind  string   // quantum boundary kind token ("" = coherence)
	Weight     *float64 // quantum partition weight
	Members    []string // quantum partition member ids
	Anonymous  bool     // entity declared without {id}
}
