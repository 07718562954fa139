package diag

import "fmt"

// Code identifies a diagnostic kind. Ranges are grouped by phase:
// 1xxx lexer, 2xxx parser, 3xxx type checking, 34xx ownership,
// 4xxx IR generation, 9xxx internal contract violations.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003
	LexUnterminatedComment Code = 1004

	// Syntactic
	SynUnexpectedToken  Code = 2001
	SynExpectIdentifier Code = 2002
	SynExpectType       Code = 2003
	SynExpectExpression Code = 2004
	SynUnclosedDelimiter Code = 2005
	SynExpectSemicolon  Code = 2006

	// Type checking
	TypeMismatch           Code = 3001
	UndefinedVariable      Code = 3002
	UndefinedFunction      Code = 3003
	UndefinedType          Code = 3004
	WrongArgumentCount     Code = 3005
	InvalidOperatorForType Code = 3006
	CannotInferType        Code = 3007
	InvalidReturn          Code = 3008
	AssignToConstant       Code = 3009
	AwaitOutsideAsync      Code = 3010
	DuplicateDefinition    Code = 3011
	TraitBoundUnsatisfied  Code = 3012
	WrongTypeArgumentCount Code = 3013
	NonExhaustivePattern   Code = 3014
	CircularDependency     Code = 3015
	JumpOutsideLoop        Code = 3016

	// Ownership
	InvalidOwnershipMove     Code = 3401
	InvalidOwnershipBorrow   Code = 3402
	InvalidOwnershipUseMoved Code = 3403

	// IR generation
	GenUnloweredConstruct Code = 4001
	GenInvalidCondition   Code = 4002

	// Internal phase-contract violations. These indicate a compiler bug,
	// never a user error.
	InternalAssertionFailed Code = 9001
)

func (c Code) String() string {
	return fmt.Sprintf("TC%04d", uint16(c))
}
