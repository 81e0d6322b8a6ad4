package container

import (
	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/value"
)

func errNotConvertible(v value.Value, target value.Type) error {
	return errs.New(errs.Data, "cannot convert %s to %s", v.Type(), target)
}
