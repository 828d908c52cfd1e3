package eventbus

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

type EventBus interface {
	Publish(args ...any)
	Subscribe(handler any)
	Unsubscribe(handler any)
	Clear()
	SubscribersCount() int
}

// EventBusWithError reports handler failures to the publisher instead of
// only logging them.
type EventBusWithError interface {
	EventBus
	PublishE(args ...any) error
}

var (
	ErrNoSubscribers        = errors.New("no matching subscribers")
	ErrInvalidHandlerReturn = errors.New("invalid handler return signature")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type subscriber struct {
	handler any
	value   reflect.Value
	closure unsafe.Pointer
}

// closureOf returns the closure a func value points at. Method values bound
// to different receivers share a code pointer but never a closure.
func closureOf(v reflect.Value) unsafe.Pointer {
	holder := reflect.New(v.Type())
	holder.Elem().Set(v)
	return *(*unsafe.Pointer)(holder.UnsafePointer())
}

type publisherImpl struct {
	log         *logrus.Logger
	mu          sync.RWMutex
	subscribers []subscriber
}

func NewEventPublisher(log *logrus.Logger) EventBusWithError {
	return &publisherImpl{log: log}
}

// MatchSignature reports whether handler can be called with args.
func MatchSignature(handler any, args []any) bool {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func {
		return false
	}
	if t.NumIn() != len(args) {
		return false
	}

	for i, arg := range args {
		paramType := t.In(i)
		if arg == nil {
			if paramType.Kind() != reflect.Interface && paramType.Kind() != reflect.Ptr {
				return false
			}
			continue
		}
		argType := reflect.TypeOf(arg)
		if paramType.Kind() == reflect.Interface {
			if !argType.Implements(paramType) {
				return false
			}
			continue
		}
		if !argType.AssignableTo(paramType) {
			return false
		}
	}
	return true
}

func (p *publisherImpl) snapshot() []subscriber {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]subscriber, len(p.subscribers))
	copy(out, p.subscribers)
	return out
}

func callArgs(handler reflect.Type, args []any) []reflect.Value {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			in[i] = reflect.Zero(handler.In(i))
			continue
		}
		in[i] = reflect.ValueOf(arg)
	}
	return in
}

// call invokes s and converts panics and returned errors into an error.
func call(s subscriber, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("eventbus: handler %s panicked with args %v: %v", s.value.Type().String(), args, r)
		}
	}()

	out := s.value.Call(callArgs(s.value.Type(), args))
	switch len(out) {
	case 0:
		return nil
	case 1:
		ret := out[0]
		if ret.Type() != errorType {
			return errors.Wrapf(ErrInvalidHandlerReturn, "handler %s return type is %s", s.value.Type().String(), ret.Type().String())
		}
		if ret.IsNil() {
			return nil
		}
		return ret.Interface().(error)
	default:
		return errors.Wrapf(ErrInvalidHandlerReturn, "handler %s returned %d values", s.value.Type().String(), len(out))
	}
}

// Publish delivers args to every matching handler. Handler errors and panics
// are logged and never reach the caller.
func (p *publisherImpl) Publish(args ...any) {
	handled := false
	for _, s := range p.snapshot() {
		if !MatchSignature(s.handler, args) {
			continue
		}
		if err := call(s, args); err != nil {
			if p.log != nil {
				p.log.Error(err)
			}
			continue
		}
		handled = true
	}

	if !handled && p.log != nil {
		p.log.Warnf("eventbus.Publish: no matching subscribers for event with args: %v", args)
	}
}

// PublishE delivers args to every matching handler and joins their errors.
func (p *publisherImpl) PublishE(args ...any) error {
	handled := false
	var errs []error
	for _, s := range p.snapshot() {
		if !MatchSignature(s.handler, args) {
			continue
		}
		handled = true
		if err := call(s, args); err != nil {
			errs = append(errs, err)
		}
	}

	if !handled {
		return ErrNoSubscribers
	}
	return stderrors.Join(errs...)
}

func (p *publisherImpl) Subscribe(handler any) {
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func {
		panic("handler must be a function")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, subscriber{handler: handler, value: v, closure: closureOf(v)})
}

// Unsubscribe removes handler. The func value passed to Subscribe always
// matches. A different func value with the same code, such as a fresh
// method value, matches only when no other subscriber shares that code;
// otherwise nothing is removed.
func (p *publisherImpl) Unsubscribe(handler any) {
	target := reflect.ValueOf(handler)
	if target.Kind() != reflect.Func {
		return
	}
	closure := closureOf(target)
	p.mu.Lock()
	defer p.mu.Unlock()

	match, sameCode := -1, 0
	for i, s := range p.subscribers {
		if s.closure == closure {
			match, sameCode = i, 1
			break
		}
		if s.value.Pointer() == target.Pointer() {
			match = i
			sameCode++
		}
	}
	switch {
	case sameCode == 1:
		p.subscribers = append(p.subscribers[:match], p.subscribers[match+1:]...)
	case sameCode > 1 && p.log != nil:
		p.log.Warnf("eventbus.Unsubscribe: %d subscribers share handler %s, pass the subscribed value", sameCode, target.Type().String())
	}
}

func (p *publisherImpl) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = nil
}

func (p *publisherImpl) SubscribersCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}
