package evaluator

import (
	"fmt"
	"math"
	"strconv"

	"github.com/valyala/fastjson"

	"variantmatch/pkg/match"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

const JSONHierarchy = "Json"

var (
	jsonParserPool fastjson.ParserPool
	jsonArenaPool  fastjson.ArenaPool
)

// JSON models JSON documents as a hierarchy and classifies them.
type JSON struct {
	Hierarchy *variant.Hierarchy

	classify *match.Matcher[string]
}

func NewJSON(reg *variant.Registry, opts ...match.Option) (*JSON, error) {
	js := variant.Ref(JSONHierarchy)
	h, err := reg.Declare(JSONHierarchy,
		variant.V("Object", variant.F("properties", variant.MappingOf(js))),
		variant.V("Array", variant.F("elements", variant.SequenceOf(js))),
		variant.V("String", variant.F("value", variant.String())),
		variant.V("Number", variant.F("value", variant.Float())),
		variant.V("Boolean", variant.F("value", variant.Bool())),
		variant.V("Null"),
	)
	if err != nil {
		return nil, err
	}

	j := &JSON{Hierarchy: h}
	j.classify, err = match.Build(h, []match.Arm[string]{
		match.When(pattern.Destructure("Object", pattern.Bind("props")), hasStringProperty("name"), func(env *runtime.Bindings) (string, error) {
			props, _ := env.Mapping("props")
			name, _ := props.Get("name")
			s, _ := name.(*runtime.VariantValue).Field("value")
			return "User: " + s.(runtime.StringValue).Val, nil
		}).Named("named entity"),
		match.When(pattern.Destructure("Object", pattern.Bind("props")), hasProperty("error"), func(*runtime.Bindings) (string, error) {
			return "Error response", nil
		}).Named("error response"),
		match.When(pattern.Destructure("Array", pattern.Bind("elements")), func(env *runtime.Bindings) (bool, error) {
			elems, err := env.Sequence("elements")
			return err == nil && elems.Len() > 0, err
		}, func(env *runtime.Bindings) (string, error) {
			elems, _ := env.Sequence("elements")
			return fmt.Sprintf("Non-empty array with %d elements", elems.Len()), nil
		}).Named("non-empty array"),
		match.Case(pattern.Destructure("String", pattern.Bind("s")), func(env *runtime.Bindings) (string, error) {
			s, err := env.Str("s")
			return "String value: " + s, err
		}),
		match.Case(pattern.Destructure("Number", pattern.Bind("n")), func(env *runtime.Bindings) (string, error) {
			n, _ := env.Get("n")
			return "Number value: " + runtime.Format(n), nil
		}),
		match.Case(pattern.Destructure("Boolean", pattern.Bind("b")), func(env *runtime.Bindings) (string, error) {
			b, err := env.Bool("b")
			return "Boolean value: " + strconv.FormatBool(b), err
		}),
		match.Case(pattern.Type("Null"), func(*runtime.Bindings) (string, error) {
			return "Null value", nil
		}),
		match.Case(pattern.Wildcard(), func(*runtime.Bindings) (string, error) {
			return "Unknown JSON structure", nil
		}),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// hasProperty is a guard over a bound `props` mapping.
func hasProperty(key string) match.Guard {
	return func(env *runtime.Bindings) (bool, error) {
		props, err := env.Mapping("props")
		if err != nil {
			return false, err
		}
		return props.Has(key), nil
	}
}

func hasStringProperty(key string) match.Guard {
	return func(env *runtime.Bindings) (bool, error) {
		props, err := env.Mapping("props")
		if err != nil {
			return false, err
		}
		v, ok := props.Get(key)
		if !ok {
			return false, nil
		}
		vv, ok := v.(*runtime.VariantValue)
		return ok && vv.Tag() == "String", nil
	}
}

// Classify describes the shape of a JSON value.
func (j *JSON) Classify(value runtime.Value) (string, error) {
	return j.classify.Match(value)
}

// Parse converts JSON text into a Json value. Object keys keep document
// order; a repeated key keeps its first position and its last value.
func (j *JSON) Parse(text string) (*runtime.VariantValue, error) {
	p := jsonParserPool.Get()
	defer jsonParserPool.Put(p)

	v, err := p.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("cannot parse json: %w", err)
	}
	return j.fromFastJSON(v)
}

func (j *JSON) fromFastJSON(v *fastjson.Value) (*runtime.VariantValue, error) {
	switch t := v.Type(); t {
	case fastjson.TypeNull:
		return j.Null(), nil
	case fastjson.TypeTrue:
		return j.Boolean(true), nil
	case fastjson.TypeFalse:
		return j.Boolean(false), nil
	case fastjson.TypeNumber:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("cannot parse json number: %w", err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("cannot parse json: number %s is out of range", v.MarshalTo(nil))
		}
		return j.Number(f), nil
	case fastjson.TypeString:
		return j.String(string(v.GetStringBytes())), nil
	case fastjson.TypeArray:
		items := v.GetArray()
		elems := make([]runtime.Value, len(items))
		for i, item := range items {
			el, err := j.fromFastJSON(item)
			if err != nil {
				return nil, err
			}
			elems[i] = el
		}
		return j.Array(elems...), nil
	case fastjson.TypeObject:
		var entries []runtime.Entry
		var visitErr error
		v.GetObject().Visit(func(k []byte, item *fastjson.Value) {
			if visitErr != nil {
				return
			}
			el, err := j.fromFastJSON(item)
			if err != nil {
				visitErr = err
				return
			}
			entries = append(entries, runtime.Entry{Key: string(k), Value: el})
		})
		if visitErr != nil {
			return nil, visitErr
		}
		return j.Object(entries...), nil
	default:
		return nil, fmt.Errorf("unexpected JSON type: %s", t)
	}
}

// Marshal renders a Json value as compact JSON text.
func (j *JSON) Marshal(value runtime.Value) (string, error) {
	if !j.Hierarchy.Contains(value) {
		return "", fmt.Errorf("evaluator: cannot marshal %s as %s", runtime.Format(value), JSONHierarchy)
	}
	a := jsonArenaPool.Get()
	defer jsonArenaPool.Put(a)

	v, err := j.toFastJSON(a, value.(*runtime.VariantValue))
	if err != nil {
		return "", err
	}
	return string(v.MarshalTo(nil)), nil
}

func (j *JSON) toFastJSON(a *fastjson.Arena, value *runtime.VariantValue) (*fastjson.Value, error) {
	field := func() runtime.Value {
		if value.NumFields() == 0 {
			return runtime.Absent
		}
		return value.FieldAt(0).Value
	}
	switch value.Tag() {
	case "Null":
		return a.NewNull(), nil
	case "Boolean":
		if field().(runtime.BoolValue).Val {
			return a.NewTrue(), nil
		}
		return a.NewFalse(), nil
	case "Number":
		f := field().(runtime.FloatValue).Val
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("evaluator: cannot marshal non-finite number %s", runtime.Format(runtime.Float(f)))
		}
		return a.NewNumberFloat64(f), nil
	case "String":
		return a.NewString(field().(runtime.StringValue).Val), nil
	case "Array":
		seq := field().(*runtime.SequenceValue)
		arr := a.NewArray()
		for i := 0; i < seq.Len(); i++ {
			el, err := j.toFastJSON(a, seq.At(i).(*runtime.VariantValue))
			if err != nil {
				return nil, err
			}
			arr.SetArrayItem(i, el)
		}
		return arr, nil
	case "Object":
		props := field().(*runtime.MappingValue)
		obj := a.NewObject()
		for _, k := range props.Keys() {
			item, _ := props.Get(k)
			el, err := j.toFastJSON(a, item.(*runtime.VariantValue))
			if err != nil {
				return nil, err
			}
			obj.Set(k, el)
		}
		return obj, nil
	}
	return nil, fmt.Errorf("evaluator: unknown %s variant %s", JSONHierarchy, value.Tag())
}

func (j *JSON) Object(entries ...runtime.Entry) *runtime.VariantValue {
	return j.Hierarchy.MustNew("Object", runtime.NewMapping(entries...))
}

func (j *JSON) Array(elements ...runtime.Value) *runtime.VariantValue {
	return j.Hierarchy.MustNew("Array", runtime.NewSequence(elements...))
}

func (j *JSON) String(s string) *runtime.VariantValue {
	return j.Hierarchy.MustNew("String", runtime.Str(s))
}

func (j *JSON) Number(f float64) *runtime.VariantValue {
	return j.Hierarchy.MustNew("Number", runtime.Float(f))
}

func (j *JSON) Boolean(b bool) *runtime.VariantValue {
	return j.Hierarchy.MustNew("Boolean", runtime.Bool(b))
}

func (j *JSON) Null() *runtime.VariantValue {
	return j.Hierarchy.MustNew("Null")
}
