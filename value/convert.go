package value

import (
	"math/big"
	"strconv"
	"time"

	"github.com/liljencrantz/crush/errs"
)

// convertDefault implements the common tail of §4.A's convert algorithm
// for a scalar value v whose concrete Convert method has already
// handled its own shortcuts: same-type passthrough, then "stringify
// self, parse as target".
func convertDefault(v Value, target Type, asString string) (Value, error) {
	if typeEqual(v.Type(), target) {
		return v, nil
	}
	return parseFromString(asString, target)
}

// parseFromString implements step 3 of §4.A: convert to string, then
// parse as target. Failure to parse is an ArgumentError.
func parseFromString(s string, target Type) (Value, error) {
	switch target.Kind() {
	case KindString:
		return StringValue(s), nil
	case KindInteger:
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, errs.New(errs.Argument, "cannot parse %q as integer", s)
		}
		return NewIntegerBig(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errs.Wrap(errs.Argument, err, "cannot parse %q as float", s)
		}
		return FloatValue(f), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errs.Wrap(errs.Argument, err, "cannot parse %q as bool", s)
		}
		return BoolValue(b), nil
	case KindDuration:
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, errs.Wrap(errs.Argument, err, "cannot parse %q as duration", s)
		}
		return DurationValue(d), nil
	case KindTime:
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, errs.Wrap(errs.Argument, err, "cannot parse %q as time", s)
		}
		return TimeValue{t}, nil
	case KindFile:
		return FileValue(s), nil
	case KindGlob:
		return GlobValue(s), nil
	case KindRegex:
		return NewRegex(s)
	case KindBinary:
		return BinaryValue{[]byte(s)}, nil
	default:
		return nil, errs.New(errs.Argument, "cannot convert %q to %s", s, target)
	}
}
