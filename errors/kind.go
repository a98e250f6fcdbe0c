/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package errors

// Kind identifies the category of a domain-level failure raised by the
// node/service/port/sample/waitset/decay stack. It is a CodeError like any
// other registered package range, shared across those packages instead of
// being private to one, since callers routinely need to branch on the kind
// regardless of which package raised it (e.g. treating KindDoesNotExist from
// a Service.Open the same as from a Node lookup).
const (
	KindInvalidName         CodeError = iota + MinPkgDomainKind
	KindInvalidConfig
	KindTypeDetailsMismatch

	KindIncompatibleMessagingPattern
	KindIncompatibleAttributes
	KindIncompatibleTypes
	KindIncompatibleQualityOfService

	KindDoesNotExist
	KindAlreadyExists
	KindIsMarkedForDestruction
	KindIsStalled

	KindExceedsMaxSupportedPorts
	KindExceedsMaxBorrows
	KindExceedsMaxLoans
	KindEventIdOutOfBounds

	KindConnectionCorrupted
	KindSendDeadlineReached
	KindInterrupted

	KindInsufficientPermissions
	KindInsufficientResources
	KindInternalFailure
)

func init() {
	RegisterIdFctMessage(KindInvalidName, getKindMessage)
}

func getKindMessage(code CodeError) string {
	switch code {
	case KindInvalidName:
		return "invalid name"
	case KindInvalidConfig:
		return "invalid config"
	case KindTypeDetailsMismatch:
		return "type details mismatch"
	case KindIncompatibleMessagingPattern:
		return "incompatible messaging pattern"
	case KindIncompatibleAttributes:
		return "incompatible attributes"
	case KindIncompatibleTypes:
		return "incompatible types"
	case KindIncompatibleQualityOfService:
		return "incompatible quality of service"
	case KindDoesNotExist:
		return "does not exist"
	case KindAlreadyExists:
		return "already exists"
	case KindIsMarkedForDestruction:
		return "is marked for destruction"
	case KindIsStalled:
		return "is stalled"
	case KindExceedsMaxSupportedPorts:
		return "exceeds max supported ports"
	case KindExceedsMaxBorrows:
		return "exceeds max borrows"
	case KindExceedsMaxLoans:
		return "exceeds max loans"
	case KindEventIdOutOfBounds:
		return "event id out of bounds"
	case KindConnectionCorrupted:
		return "connection corrupted"
	case KindSendDeadlineReached:
		return "send deadline reached"
	case KindInterrupted:
		return "interrupted"
	case KindInsufficientPermissions:
		return "insufficient permissions"
	case KindInsufficientResources:
		return "insufficient resources"
	case KindInternalFailure:
		return "internal failure"
	default:
		return UnknownMessage
	}
}

