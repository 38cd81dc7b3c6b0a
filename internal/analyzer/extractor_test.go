package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClassFacts(t *testing.T) {
	mod := parseModule(t, "shop", `
class Cart:
    tax_rate = 0.2

    def __init__(self, store):
        self.items = []
        self.store = store

    def add(self, item):
        self.items.append(item)

    def total(self):
        return sum(i.price for i in self.items)

    @property
    def size(self):
        return len(self.items)
`)

	require.Len(t, mod.Classes, 1)
	c := mod.Classes[0]
	assert.Equal(t, "shop.Cart", c.QualifiedName)
	assert.Equal(t, []string{"items", "store", "tax_rate"}, c.Fields)
	require.Len(t, c.Methods, 4)

	counted := c.CountedMethods()
	require.Len(t, counted, 2, "dunder and property methods are not counted")
	assert.Equal(t, "add", counted[0].Name)
	assert.Equal(t, "total", counted[1].Name)

	init := c.Methods[0]
	assert.True(t, init.IsDunder)
	assert.True(t, init.FieldsWritten["items"])
	assert.True(t, init.FieldsWritten["store"])

	add := c.Methods[1]
	assert.True(t, add.FieldsRead["items"], "self.items.append reads the field")
}

func TestExtractMethodFlags(t *testing.T) {
	mod := parseModule(t, "m", `
from abc import ABC, abstractmethod

class Base(ABC):
    @abstractmethod
    def run(self):
        ...

    @staticmethod
    def helper():
        return 1

    @classmethod
    def build(cls):
        return cls()
`)

	require.Len(t, mod.Classes, 1)
	c := mod.Classes[0]
	assert.True(t, c.IsAbstract)
	require.Len(t, c.Methods, 3)
	assert.True(t, c.Methods[0].IsAbstract)
	assert.True(t, c.Methods[1].IsStatic)
	assert.True(t, c.Methods[2].IsClassMethod)
}

func TestExtractFieldConstructors(t *testing.T) {
	mod := parseModule(t, "m", `
class Holder:
    def __init__(self, raw):
        self.conn = Gateway()
        self.raw = raw
        self.label = "x"
`)

	init := mod.Classes[0].Methods[0]
	assert.Equal(t, "Gateway", init.FieldConstructors["conn"])
	assert.NotContains(t, init.FieldConstructors, "raw",
		"only the target of the constructor assignment is paired")
	assert.NotContains(t, init.FieldConstructors, "label")
}

func TestClassIsAbstractWhenEveryBodyIsAStub(t *testing.T) {
	mod := parseModule(t, "m", `
class Reader:
    def open(self):
        pass

    def read(self):
        """Pull the next chunk."""
        raise NotImplementedError

    def close(self):
        raise NotImplementedError("close me")
`)
	assert.True(t, mod.Classes[0].IsAbstract)

	mod = parseModule(t, "m", `
class Concrete:
    def open(self):
        pass

    def read(self):
        return 1
`)
	assert.False(t, mod.Classes[0].IsAbstract, "one real body makes the class concrete")
}

func TestClassIsUtilityWithClassMethods(t *testing.T) {
	mod := parseModule(t, "m", `
class Registry:
    @staticmethod
    def lookup(name):
        return name

    @classmethod
    def register(cls, name):
        return cls
`)
	assert.True(t, mod.Classes[0].IsUtility,
		"a class of static and class methods carries no instance state")
}

func TestExtractCalls(t *testing.T) {
	mod := parseModule(t, "m", `
def process(db, raw):
    record = parse(raw)
    db.session.commit(record)
    return record
`)

	require.Len(t, mod.Functions, 1)
	fn := mod.Functions[0]
	require.Len(t, fn.Calls, 2)
	assert.Equal(t, []string{"parse"}, fn.Calls[0].Chain)
	assert.Equal(t, []string{"db", "session", "commit"}, fn.Calls[1].Chain)
	assert.Equal(t, 1, fn.Calls[1].ArgCount)
	assert.Equal(t, 2, fn.LongestChain)
}

func TestExtractDelegation(t *testing.T) {
	mod := parseModule(t, "m", `
class Facade:
    def __init__(self, engine):
        self.engine = engine

    def start(self):
        return self.engine.start()

    def status(self):
        """Doc."""
        return self.engine.poll()

    def restart(self):
        self.engine.stop()
        return self.engine.start()
`)

	c := mod.Classes[0]
	byName := make(map[string]*MethodFact)
	for _, m := range c.Methods {
		byName[m.Name] = m
	}
	assert.True(t, byName["start"].Delegating)
	assert.True(t, byName["status"].Delegating, "a docstring does not break delegation detection")
	assert.False(t, byName["restart"].Delegating)
}

func TestExtractImports(t *testing.T) {
	mod := parseModule(t, "pkg.mod", `
import os
from pkg import helper
from . import sibling
from .sub import thing
`)

	require.Len(t, mod.Imports, 4)
	assert.Equal(t, "os", mod.Imports[0].Module)
	assert.False(t, mod.Imports[0].IsFrom)

	assert.Equal(t, "pkg", mod.Imports[1].Module)
	assert.Equal(t, []string{"helper"}, mod.Imports[1].Names)

	assert.Equal(t, 1, mod.Imports[2].Level)
	assert.Equal(t, "", mod.Imports[2].Module)

	assert.Equal(t, 1, mod.Imports[3].Level)
	assert.Equal(t, "sub", mod.Imports[3].Module)
}

func TestExtractForeignAccesses(t *testing.T) {
	mod := parseModule(t, "m", `
class Billing:
    def charge(self, order):
        amount = order.price * order.quantity
        order.status = "charged"
        return self.gateway.submit(amount)
`)

	m := mod.Classes[0].Methods[0]
	assert.Equal(t, 3, m.ForeignAccesses["order"])
	assert.GreaterOrEqual(t, m.OwnAccesses, 1)
}
