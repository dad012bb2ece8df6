package script

import (
	"time"

	"github.com/ncruces/go-strftime"
)

// Date wraps time.Time behind the Object Class="Date" convention, with
// formatting delegated to go-strftime (the teacher's indirect dependency,
// repurposed here for toDateString/toTimeString/toUTCString) rather than
// hand-rolled layout strings.
func newDateObject(t time.Time) *Object {
	o := NewObject()
	o.Class = "Date"
	o.Internal = t
	return o
}

func installDateConstructor(it *Interp) {
	it.Global.Declare("Date", &Function{Name: "Date", Native: func(interp *Interp, this Value, args []Value) (Value, error) {
		if len(args) == 0 {
			return newDateObject(epochFromSchedulerClock(interp)), nil
		}
		if len(args) == 1 {
			switch v := args[0].(type) {
			case Number:
				return newDateObject(time.UnixMilli(int64(v)).UTC()), nil
			case String:
				t, err := time.Parse(time.RFC3339, string(v))
				if err != nil {
					return newDateObject(time.Time{}), nil
				}
				return newDateObject(t.UTC()), nil
			}
		}
		ymd := func(i, def int) int {
			if i < len(args) {
				return int(ToNumber(args[i]))
			}
			return def
		}
		t := time.Date(ymd(0, 1970), time.Month(ymd(1, 0)+1), ymd(2, 1), ymd(3, 0), ymd(4, 0), ymd(5, 0), 0, time.UTC)
		return newDateObject(t), nil
	}}, "const")
}

func epochFromSchedulerClock(it *Interp) time.Time {
	return time.UnixMilli(it.Sched.NowMs()).UTC()
}

func dateMethod(o *Object, key string) (Value, bool) {
	t := o.Internal.(time.Time)
	switch key {
	case "getTime", "valueOf":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(t.UnixMilli()), nil
		}), true
	case "getFullYear":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(t.Year()), nil
		}), true
	case "getMonth":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(int(t.Month()) - 1), nil
		}), true
	case "getDate":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(t.Day()), nil
		}), true
	case "getDay":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(int(t.Weekday())), nil
		}), true
	case "getHours":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(t.Hour()), nil
		}), true
	case "getMinutes":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(t.Minute()), nil
		}), true
	case "getSeconds":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(t.Second()), nil
		}), true
	case "toISOString":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(t.UTC().Format("2006-01-02T15:04:05.000Z")), nil
		}), true
	case "toDateString":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			s, _ := strftime.Format("%a %b %d %Y", t)
			return String(s), nil
		}), true
	case "toTimeString":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			s, _ := strftime.Format("%H:%M:%S GMT+0000 (Coordinated Universal Time)", t)
			return String(s), nil
		}), true
	case "toUTCString":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			s, _ := strftime.Format("%a, %d %b %Y %H:%M:%S GMT", t)
			return String(s), nil
		}), true
	case "toString":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			s, _ := strftime.Format("%a %b %d %Y %H:%M:%S GMT+0000 (Coordinated Universal Time)", t)
			return String(s), nil
		}), true
	}
	return nil, false
}
