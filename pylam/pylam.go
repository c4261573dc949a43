package pylam

// Copyright 2018 The go-python Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-python/gpython/py"

	"github.com/lamnet-systems/golam/golam"
	"github.com/lamnet-systems/golam/liblam"
	"github.com/lamnet-systems/golam/liblam/catalog"
)

var (
	LIB_VERSION = "v1.2026.1"
)

var (
	pyTermType       = py.NewType("Term", "an immutable λ-calculus term in de Bruijn form")
	pyTermStreamType = py.NewType("TermStream", "golam.TermStream")
	pyCatalogType    = py.NewType("Catalog", "golam.Catalog")
	pyWorkspaceType  = py.NewType("Workspace", "collects active session resources and catalogs")
)

func getTermFromTermObj(obj py.Object) (X pyTerm, err error) {
	if obj.Type().Name != "Term" {
		err = py.ExceptionNewf(py.TypeError, "expected Term object (got %v)", obj.Type().Name)
		return
	}
	var attr py.Object
	attr, err = py.GetAttrString(obj, "_term")
	if err != nil {
		return
	}
	X = attr.(pyTerm)
	return
}

type pyTerm struct {
	*golam.Term
}

func (X pyTerm) Type() *py.Type {
	return pyTermType
}

func (X pyTerm) M__str__() (py.Object, error) {
	writer := strings.Builder{}
	X.WriteAsString(&writer, golam.DefaultPrintOpts)
	return py.String(writer.String()), nil
}

func (X pyTerm) M__repr__() (py.Object, error) {
	return X.M__str__()
}

// Arg 1 (int): de Bruijn index
func py_Var(module py.Object, args py.Tuple) (py.Object, error) {
	var index py.Object
	err := py.ParseTuple(args, "i", &index)
	if err != nil {
		return nil, err
	}
	return py.Object(pyTerm{golam.Var(int32(index.(py.Int)))}), nil
}

func py_Lam(module py.Object, args py.Tuple) (py.Object, error) {
	body, err := getOneTermArg(args)
	if err != nil {
		return nil, err
	}
	return py.Object(pyTerm{golam.Lam(body)}), nil
}

// getOneTermArg guards single-term entry points against missing arguments so
// script mistakes raise TypeError instead of panicking the runtime.
func getOneTermArg(args py.Tuple) (*golam.Term, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "expected a Term argument")
	}
	return getTermFromAny(args[0])
}

func py_App(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 2 {
		return nil, py.ExceptionNewf(py.TypeError, "App requires a function and at least one argument")
	}
	fn, err := getTermFromAny(args[0])
	if err != nil {
		return nil, err
	}
	for _, arg := range args[1:] {
		Xa, err := getTermFromAny(arg)
		if err != nil {
			return nil, err
		}
		fn = golam.App(fn, Xa)
	}
	return py.Object(pyTerm{fn}), nil
}

func getChurchObj(n int) (py.Object, error) {
	if n < 0 || n > golam.MaxChurch {
		return nil, py.ExceptionNewf(py.ValueError, "Church numeral out of range: %d", n)
	}
	return py.Object(pyTerm{golam.Church(n)}), nil
}

// getTermFromAny accepts either a Term object or an int (taken as a Church
// numeral), so scripts can write App(add, 2, 3) directly.
func getTermFromAny(obj py.Object) (*golam.Term, error) {
	if n, isInt := obj.(py.Int); isInt {
		if n < 0 || n > golam.MaxChurch {
			return nil, py.ExceptionNewf(py.ValueError, "Church numeral out of range: %d", n)
		}
		return golam.Church(int(n)), nil
	}
	X, err := getTermFromTermObj(obj)
	if err != nil {
		return nil, err
	}
	return X.Term, nil
}

func py_Church(module py.Object, args py.Tuple) (py.Object, error) {
	var n py.Object
	err := py.ParseTuple(args, "i", &n)
	if err != nil {
		return nil, err
	}
	return getChurchObj(int(n.(py.Int)))
}

// Arg 1,2 (int or Term): base, exponent.  Arg 3 (int): modulus -- it sets
// the residue ring width, so it must be a literal, not a Term.
func py_ExpMod(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) != 3 {
		return nil, py.ExceptionNewf(py.TypeError, "ExpMod requires base, exponent, modulus")
	}
	a, err := getTermFromAny(args[0])
	if err != nil {
		return nil, err
	}
	b, err := getTermFromAny(args[1])
	if err != nil {
		return nil, err
	}
	m, ok := args[2].(py.Int)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "modulus must be an int (got %v)", args[2].Type().Name)
	}
	if m <= 0 {
		return nil, py.ExceptionNewf(py.ValueError, "modulus must be positive: %d", m)
	}
	X := golam.AppAll(golam.ChurchExpMod(int(m)), a, b)
	return py.Object(pyTerm{X}), nil
}

func py_Normalize(module py.Object, args py.Tuple) (py.Object, error) {
	X, err := getOneTermArg(args)
	if err != nil {
		return nil, err
	}
	normal, _, err := liblam.Normalize(X)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.Object(pyTerm{normal}), nil
}

// NormalizeStats returns (normal form, iterations, rewrites, beta steps, peak nodes).
func py_NormalizeStats(module py.Object, args py.Tuple) (py.Object, error) {
	X, err := getOneTermArg(args)
	if err != nil {
		return nil, err
	}
	normal, stats, err := liblam.Normalize(X)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.Tuple{
		py.Object(pyTerm{normal}),
		py.Int(stats.Iterations),
		py.Int(stats.Rewrites),
		py.Int(stats.BetaSteps),
		py.Int(stats.PeakNodes),
	}, nil
}

func py_Term_Size(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyTerm)
	return py.Object(py.Int(X.GetInfo().Size)), nil
}

func py_Term_Depth(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyTerm)
	return py.Object(py.Int(X.GetInfo().Depth)), nil
}

// ToInt reads the term back as a Church numeral, or raises ValueError.
func py_Term_ToInt(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyTerm)
	n, err := golam.ChurchToInt(X.Term)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.Object(py.Int(n)), nil
}

func py_Term_Apply(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyTerm)
	fn := X.Term
	for _, arg := range args {
		Xa, err := getTermFromAny(arg)
		if err != nil {
			return nil, err
		}
		fn = golam.App(fn, Xa)
	}
	return py.Object(pyTerm{fn}), nil
}

func py_Term_Stream(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyTerm)
	next := golam.StreamTerm(X.Term)
	return wrapTermStream(next), nil
}

const (
	READ_ONLY = 0x01

	kWorkspaceAttr = "_Workspace"
)

type Workspace struct {
	CatalogCtx golam.CatalogContext
}

func (ws *Workspace) Close() {
	ws.CatalogCtx.Close()
	<-ws.CatalogCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		ws := &Workspace{
			CatalogCtx: golam.NewCatalogContext(),
		}
		wsObj = ws
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

func py_Workspace_CatalogExists(self py.Object, args py.Tuple) (py.Object, error) {
	_ = self.(*Workspace)

	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(pathname)
	if os.IsNotExist(err) {
		return py.False, nil
	}
	return py.True, nil
}

func py_Workspace_OpenCatalog(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var pathname string
	var flags int32
	err := py.LoadTuple(args, []interface{}{&pathname, &flags})
	if err != nil {
		return nil, err
	}

	opts := golam.CatalogOpts{
		ReadOnly:   (flags & READ_ONLY) != 0,
		DbPathName: pathname,
	}

	cat, err := catalog.OpenCatalog(ws.CatalogCtx, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	pyCat := pyCatalog{cat}
	return py.Object(pyCat), nil
}

type pyCatalog struct {
	golam.Catalog
}

func (cat pyCatalog) Type() *py.Type {
	return pyCatalogType
}

func py_Catalog_Close(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	if cat.Catalog != nil {
		cat.Close()
	}
	return py.None, nil
}

func py_Catalog_Select(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	sel := golam.DefaultTermSelector
	if len(args) > 0 {
		err := getTermSelector(args[0], &sel)
		if err != nil {
			return nil, err
		}
	}

	next := golam.SelectFromCatalog(cat, sel)
	return wrapTermStream(next), nil
}

func py_Catalog_NumTerms(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)

	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "NumTerms requires a term size")
	}
	size, err := py.GetInt(args[0])
	if err != nil {
		return nil, err
	}

	numTerms := cat.NumTerms(int32(size))
	return py.Int(numTerms), nil
}

// Lookup returns the cataloged normal form of the given term, or None.
func py_Catalog_Lookup(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)

	X, err := getOneTermArg(args)
	if err != nil {
		return nil, err
	}
	normal, _, found := cat.Lookup(X)
	if !found {
		return py.None, nil
	}
	return py.Object(pyTerm{normal}), nil
}

func py_TermStream_Go(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(termStream)
	count := stream.PullAll()
	return py.Int(count), nil
}

type echoToWriter struct {
	stdout *os.File
	to     io.WriteCloser
}

func (echo *echoToWriter) Write(buf []byte) (int, error) {
	var (
		n   int
		err error
	)
	if echo.to == nil {
		n, err = echo.stdout.Write(buf)
	} else {
		n, err = echo.to.Write(buf)
	}
	return n, err
}

func (echo *echoToWriter) Close() error {
	if echo.to != nil {
		return echo.to.Close()
	}
	return nil
}

var gOutCount = int32(0)

// See lib/pylam.py Print() docs
func py_TermStream_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(termStream)
	var pathname string

	opts := golam.DefaultPrintOpts

	py.LoadTuple(args, []interface{}{&opts.Label})
	if opts.Label == "" {
		py.LoadAttr(kwargs, "label", &opts.Label)
	}

	atomic.AddInt32(&gOutCount, 1)
	if opts.Label == "" {
		opts.Label = fmt.Sprintf("out[%d]", gOutCount)
	}

	py.LoadAttr(kwargs, "file", &pathname)

	writer := &echoToWriter{
		stdout: os.Stdout,
	}
	if len(pathname) > 0 {
		os.MkdirAll(filepath.Dir(pathname), 0700)

		file, err := os.OpenFile(string(pathname), os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		writer.to = file
	}

	next := stream.Print(writer, opts)
	return wrapTermStream(next), nil
}

type termStream struct {
	*golam.TermStream
}

func (stream termStream) Type() *py.Type {
	return pyTermStreamType
}

func wrapTermStream(stream *golam.TermStream) py.Object {
	return py.Object(termStream{stream})
}

func py_TermStream_AddTo(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(termStream)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "AddTo requires a catalog")
	}
	attr, err := py.GetAttrString(args[0], "_cat")
	if err != nil {
		return nil, err
	}
	cat := attr.(pyCatalog)
	if cat.IsReadOnly() {
		return nil, py.ExceptionNewf(py.PermissionError, "%v", errors.New("catalog is in read-only mode"))
	}

	next := stream.AddTo(cat)
	return wrapTermStream(next), nil
}

func py_TermStream_DropDupes(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(termStream)

	// Memory resident dedup; dropped keys vanish when the stream closes
	set := liblam.NewDropDupes(liblam.DropDupeOpts{})
	next := stream.AddTo(set)
	return wrapTermStream(next), nil
}

// Normalize maps each passing term to its normal form on the net engine.
// Terms that exceed the engine's limits are dropped from the stream.
func py_TermStream_Normalize(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(termStream)
	next := stream.Map(func(X *golam.Term) *golam.Term {
		normal, _, err := liblam.Normalize(X)
		if err != nil {
			return nil
		}
		return normal
	})
	return wrapTermStream(next), nil
}

func py_TermStream_Select(self py.Object, args py.Tuple) (py.Object, error) {
	sel := golam.DefaultTermSelector
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Select requires a TermSelector")
	}
	err := getTermSelector(args[0], &sel)
	if err != nil {
		return nil, err
	}
	stream := self.(termStream)
	next := stream.SelectFromStream(sel)
	return wrapTermStream(next), nil
}

func init() {

	/////////////////////////////////
	// Term
	{
		pyTermType.Dict["Size"] = py.MustNewMethod("Size", py_Term_Size, 0, "node count of this Term")
		pyTermType.Dict["Depth"] = py.MustNewMethod("Depth", py_Term_Depth, 0, "")
		pyTermType.Dict["ToInt"] = py.MustNewMethod("ToInt", py_Term_ToInt, 0, "reads this Term back as a Church numeral")
		pyTermType.Dict["Apply"] = py.MustNewMethod("Apply", py_Term_Apply, 0, "")
		pyTermType.Dict["Stream"] = py.MustNewMethod("Stream", py_Term_Stream, 0, "")
	}

	/////////////////////////////////
	// Catalog
	{
		pyCatalogType.Dict["Select"] = py.MustNewMethod("Select", py_Catalog_Select, 0, "")
		pyCatalogType.Dict["NumTerms"] = py.MustNewMethod("NumTerms", py_Catalog_NumTerms, 0, "")
		pyCatalogType.Dict["Lookup"] = py.MustNewMethod("Lookup", py_Catalog_Lookup, 0, "")
		pyCatalogType.Dict["Close"] = py.MustNewMethod("Close", py_Catalog_Close, 0, "")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["OpenCatalog"] = py.MustNewMethod("OpenCatalog", py_Workspace_OpenCatalog, 0, "")
		pyWorkspaceType.Dict["CatalogExists"] = py.MustNewMethod("CatalogExists", py_Workspace_CatalogExists, 0, "")
	}

	/////////////////////////////////
	// TermStream
	{
		pyTermStreamType.Dict["Go"] = py.MustNewMethod("Go", py_TermStream_Go, 0, "counts the number of terms output from the TermStream")
		pyTermStreamType.Dict["Print"] = py.MustNewMethod("Print", py_TermStream_Print, 0, "prints each term from the TermStream")
		pyTermStreamType.Dict["AddTo"] = py.MustNewMethod("AddTo", py_TermStream_AddTo, 0, "")
		pyTermStreamType.Dict["DropDupes"] = py.MustNewMethod("DropDupes", py_TermStream_DropDupes, 0, "")
		pyTermStreamType.Dict["Normalize"] = py.MustNewMethod("Normalize", py_TermStream_Normalize, 0, "")
		pyTermStreamType.Dict["Select"] = py.MustNewMethod("Select", py_TermStream_Select, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("Var", py_Var, 0, ""),
			py.MustNewMethod("Lam", py_Lam, 0, ""),
			py.MustNewMethod("App", py_App, 0, ""),
			py.MustNewMethod("Church", py_Church, 0, ""),
			py.MustNewMethod("ExpMod", py_ExpMod, 0, ""),
			py.MustNewMethod("Normalize", py_Normalize, 0, ""),
			py.MustNewMethod("NormalizeStats", py_NormalizeStats, 0, ""),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"PY_VERSION":  py.String("v3.4.0"),
			"MAX_CHURCH":  py.Int(golam.MaxChurch),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_pylam",
				Doc:  "λ-calculus optimal reduction gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})

	}
}

func intAttr(obj py.Object, key string, min, max int64) int64 {
	attr, err := py.GetAttrString(obj, key)
	if err != nil {
		panic(err)
	}
	val, _ := py.GetInt(attr)
	intVal := int64(val)
	if intVal < min {
		intVal = min
	}
	if intVal > max {
		intVal = max
	}
	return intVal
}

func exportTermInfo(termInfo py.Object) golam.TermInfo {
	info := golam.TermInfo{
		Size:  int32(intAttr(termInfo, "size", 0, 1<<30)),
		Depth: int32(intAttr(termInfo, "depth", 0, 1<<30)),
	}
	return info
}

func getTermSelector(term_selector py.Object, sel *golam.TermSelector) error {

	info, err := py.GetAttrString(term_selector, "min")
	if err != nil {
		return err
	}
	sel.Min = exportTermInfo(info)

	info, err = py.GetAttrString(term_selector, "max")
	if err != nil {
		return err
	}
	sel.Max = exportTermInfo(info)

	return nil
}
