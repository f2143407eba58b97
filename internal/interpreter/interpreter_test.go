package interpreter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/parser"
)

// run 执行一段源码并返回标准输出
func run(t *testing.T, source string) string {
	t.Helper()

	p := parser.New(source, "test.cb")
	program := p.Parse()
	if p.HasErrors() {
		t.Fatalf("parse errors: %v", p.Errors()[0])
	}

	var out bytes.Buffer
	interp := New()
	interp.SetStdout(&out)
	if err := interp.Evaluate(program); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return out.String()
}

// runErr 执行一段源码并返回运行时诊断
func runErr(t *testing.T, source string) *errors.Diagnostic {
	t.Helper()

	p := parser.New(source, "test.cb")
	program := p.Parse()
	if p.HasErrors() {
		t.Fatalf("parse errors: %v", p.Errors()[0])
	}

	interp := New()
	interp.SetStdout(&bytes.Buffer{})
	err := interp.Evaluate(program)
	if err == nil {
		t.Fatalf("expected runtime error, got none")
	}
	diag, ok := err.(*errors.Diagnostic)
	if !ok {
		t.Fatalf("expected *errors.Diagnostic, got %T: %v", err, err)
	}
	return diag
}

func expectOutput(t *testing.T, source, want string) {
	t.Helper()
	if got := run(t, source); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// ============================================================================
// 算术与打印
// ============================================================================

func TestArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"print(1 + 2 * 3)\n", "7\n"},
		{"print(10 - 4 - 3)\n", "3\n"},
		{"print(2 * 3 + 1)\n", "7\n"},
		{"print(7 / 2)\n", "3.5\n"},
		{"print(6 / 3)\n", "2.0\n"},
		{"print(1 + 2.5)\n", "3.5\n"},
		{"print(2.0 * 3)\n", "6.0\n"},
		{"print(-5 + 3)\n", "-2\n"},
		{"print(-(2 + 3))\n", "-5\n"},
		{"print(\"foo\" + \"bar\")\n", "foobar\n"},
	}
	for _, tt := range tests {
		expectOutput(t, tt.source, tt.want)
	}
}

func TestPrintMulti(t *testing.T) {
	expectOutput(t, "print(1, 2.5, \"x\", true)\n", "1 2.5 x true\n")
	expectOutput(t, "print()\n", "\n")
}

func TestFloatFormatting(t *testing.T) {
	expectOutput(t, "print(4 / 2)\n", "2.0\n")
	expectOutput(t, "print(1.5 + 1.5)\n", "3.0\n")
	expectOutput(t, "print(0.1 + 0.2 > 0.3)\n", "true\n")
}

func TestDivisionByZero(t *testing.T) {
	diag := runErr(t, "print(1 / 0)\n")
	if diag.Kind != errors.ValueError {
		t.Errorf("kind = %v, want ValueError", diag.Kind)
	}
	if diag.Message != "division by zero" {
		t.Errorf("message = %q", diag.Message)
	}
}

func TestArithmeticTypeError(t *testing.T) {
	diag := runErr(t, "print(1 + \"a\")\n")
	if diag.Kind != errors.TypeError {
		t.Errorf("kind = %v, want TypeError", diag.Kind)
	}
	if !strings.Contains(diag.Message, "unsupported operand types for '+'") {
		t.Errorf("message = %q", diag.Message)
	}
}

// ============================================================================
// 比较、逻辑与真值
// ============================================================================

func TestComparisons(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"print(1 < 2)\n", "true\n"},
		{"print(2 <= 2)\n", "true\n"},
		{"print(1 == 1.0)\n", "true\n"},
		{"print(true == 1)\n", "false\n"},
		{"print(\"abc\" < \"abd\")\n", "true\n"},
		{"print([1, 2] == [1, 2])\n", "true\n"},
		{"print((1, 2) == (1, 2.0))\n", "true\n"},
		{"print(1 != 2)\n", "true\n"},
	}
	for _, tt := range tests {
		expectOutput(t, tt.source, tt.want)
	}
}

func TestShortCircuit(t *testing.T) {
	source := `def side():
    print("x")
    return true

result = false and side()
print(result)
`
	expectOutput(t, source, "false\n")

	source = `def side():
    print("x")
    return false

result = true or side()
print(result)
`
	expectOutput(t, source, "true\n")
}

// and / or 返回决定结果的操作数本身，不强转布尔
func TestLogicalOperandValue(t *testing.T) {
	expectOutput(t, "print(0 or \"fallback\")\n", "fallback\n")
	expectOutput(t, "print(1 and 2)\n", "2\n")
	expectOutput(t, "print(\"\" and \"never\")\n", "\n")
}

func TestTruthiness(t *testing.T) {
	source := `if 0:
    print("int")
if 0.0:
    print("float")
if "":
    print("str")
if []:
    print("array")
if not 0:
    print("falsy zero")
if [1]:
    print("nonempty")
`
	expectOutput(t, source, "falsy zero\nnonempty\n")
}

func TestNotOperator(t *testing.T) {
	expectOutput(t, "print(not true)\n", "false\n")
	expectOutput(t, "print(not 0)\n", "true\n")
	expectOutput(t, "print(not not 5)\n", "true\n")
}

// ============================================================================
// 控制流
// ============================================================================

func TestIfElifElse(t *testing.T) {
	source := `x = 15
if x < 10:
    print("small")
elif x < 20:
    print("medium")
else:
    print("large")
`
	expectOutput(t, source, "medium\n")
}

func TestWhileLoop(t *testing.T) {
	source := `n = 0
total = 0
while n < 5:
    n = n + 1
    total = total + n
print(total)
`
	expectOutput(t, source, "15\n")
}

func TestForLoop(t *testing.T) {
	source := `nums = [1, 2, 3, 4, 5]
total = 0
for i = 0; i < len(nums); i = i + 1:
    total = total + nums[i]
print(total)
`
	expectOutput(t, source, "15\n")
}

// for 不引入新作用域，循环变量执行后可见
func TestForLoopScope(t *testing.T) {
	source := `for i = 0; i < 3; i = i + 1:
    x = i
print(i, x)
`
	expectOutput(t, source, "3 2\n")
}

// ============================================================================
// 函数与作用域
// ============================================================================

func TestFibonacci(t *testing.T) {
	source := `def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)

print(fib(10))
`
	expectOutput(t, source, "55\n")
}

func TestFunctionFallThroughReturnsNone(t *testing.T) {
	source := `def noop():
    x = 1

print(noop())
`
	expectOutput(t, source, "None\n")
}

func TestBareReturn(t *testing.T) {
	source := `def early(n):
    if n > 0:
        return
    print("negative")

print(early(1))
`
	expectOutput(t, source, "None\n")
}

func TestClosure(t *testing.T) {
	source := `counter = 0

def bump():
    counter = counter + 1
    return counter

bump()
bump()
print(bump())
`
	expectOutput(t, source, "3\n")
}

func TestNestedFunctionClosure(t *testing.T) {
	source := `def outer():
    base = 10
    def inner(n):
        return base + n
    return inner(5)

print(outer())
`
	expectOutput(t, source, "15\n")
}

func TestFunctionArity(t *testing.T) {
	diag := runErr(t, "def f(a, b):\n    return a\n\nf(1)\n")
	if diag.Kind != errors.TypeError {
		t.Errorf("kind = %v, want TypeError", diag.Kind)
	}
	if diag.Message != "f() takes 2 arguments (1 given)" {
		t.Errorf("message = %q", diag.Message)
	}
}

func TestReturnOutsideFunction(t *testing.T) {
	diag := runErr(t, "return 1\n")
	if diag.Kind != errors.SyntaxError {
		t.Errorf("kind = %v, want SyntaxError", diag.Kind)
	}
	if diag.Message != "'return' outside function" {
		t.Errorf("message = %q", diag.Message)
	}
}

func TestUndefinedVariable(t *testing.T) {
	diag := runErr(t, "counter = 1\nprint(countr)\n")
	if diag.Kind != errors.NameError {
		t.Errorf("kind = %v, want NameError", diag.Kind)
	}
	if !strings.Contains(diag.Message, "undefined variable 'countr'") {
		t.Errorf("message = %q", diag.Message)
	}
	if !strings.Contains(diag.Message, "did you mean 'counter'?") {
		t.Errorf("message lacks suggestion: %q", diag.Message)
	}
}

func TestNotCallable(t *testing.T) {
	diag := runErr(t, "x = 5\nx()\n")
	if diag.Kind != errors.TypeError {
		t.Errorf("kind = %v, want TypeError", diag.Kind)
	}
	if !strings.Contains(diag.Message, "not callable") {
		t.Errorf("message = %q", diag.Message)
	}
}

// ============================================================================
// 集合与下标
// ============================================================================

func TestArrayIndexing(t *testing.T) {
	source := `nums = [10, 20, 30]
nums[1] = 25
print(nums[0], nums[1], nums[2])
`
	expectOutput(t, source, "10 25 30\n")
}

func TestIndexOutOfRange(t *testing.T) {
	diag := runErr(t, "nums = [1, 2]\nprint(nums[5])\n")
	if diag.Kind != errors.IndexError {
		t.Errorf("kind = %v, want IndexError", diag.Kind)
	}
	if diag.Message != "index 5 out of range for array of length 2" {
		t.Errorf("message = %q", diag.Message)
	}
}

func TestNegativeIndex(t *testing.T) {
	diag := runErr(t, "nums = [1, 2]\nprint(nums[-1])\n")
	if diag.Kind != errors.IndexError {
		t.Errorf("kind = %v, want IndexError", diag.Kind)
	}
}

func TestStringIndexing(t *testing.T) {
	expectOutput(t, "s = \"hello\"\nprint(s[1])\n", "e\n")
}

func TestTupleIndexing(t *testing.T) {
	expectOutput(t, "pair = (4, 5)\nprint(pair[0] + pair[1])\n", "9\n")
}

func TestMapLiteralAndIndex(t *testing.T) {
	source := `ages = {"ana": 30, "bo": 25}
ages["ana"] = 31
print(ages["ana"])
`
	expectOutput(t, source, "31\n")
}

func TestMapMissingKey(t *testing.T) {
	diag := runErr(t, "m = {\"a\": 1}\nprint(m[\"b\"])\n")
	if diag.Kind != errors.KeyError {
		t.Errorf("kind = %v, want KeyError", diag.Kind)
	}
	if diag.Message != "key not found: b" {
		t.Errorf("message = %q", diag.Message)
	}
}

// 数值相等的键共享同一个槽位，1 和 1.0 是同一个键
func TestMapNumericKeyUnification(t *testing.T) {
	source := `m = Map()
m[1] = "int"
m[1.0] = "float"
print(len(m), m[1])
`
	expectOutput(t, source, "1 float\n")
}

func TestIndexAssignCreatesMapKey(t *testing.T) {
	source := `m = Map()
m["k"] = 7
print(m["k"])
`
	expectOutput(t, source, "7\n")
}

func TestIndexAssignUnsupported(t *testing.T) {
	diag := runErr(t, "t = (1, 2)\nt[0] = 9\n")
	if diag.Kind != errors.TypeError {
		t.Errorf("kind = %v, want TypeError", diag.Kind)
	}
}

func TestSetDeduplication(t *testing.T) {
	source := `s = {1, 2, 2, 3}
print(len(s))
s.add(2)
print(len(s))
`
	expectOutput(t, source, "3\n3\n")
}

func TestUnhashableKey(t *testing.T) {
	diag := runErr(t, "m = {[1]: 2}\n")
	if diag.Kind != errors.TypeError {
		t.Errorf("kind = %v, want TypeError", diag.Kind)
	}
	if !strings.Contains(diag.Message, "hashable") {
		t.Errorf("message = %q", diag.Message)
	}
}

func TestCollectionInspect(t *testing.T) {
	source := `print([1, "a", 2.0])
print((1, "b"))
print({"k": "v"})
`
	expectOutput(t, source, "[1, \"a\", 2.0]\n(1, \"b\")\n{\"k\": \"v\"}\n")
}

// ============================================================================
// 方法
// ============================================================================

func TestArrayPushPop(t *testing.T) {
	source := `nums = [1]
nums.push(2)
nums.push(3)
print(nums.pop())
print(len(nums))
`
	expectOutput(t, source, "3\n2\n")
}

func TestPopEmpty(t *testing.T) {
	diag := runErr(t, "nums = []\nnums.pop()\n")
	if diag.Kind != errors.IndexError {
		t.Errorf("kind = %v, want IndexError", diag.Kind)
	}
	if diag.Message != "pop from empty list" {
		t.Errorf("message = %q", diag.Message)
	}
}

func TestArraySort(t *testing.T) {
	source := `nums = [3, 1.5, 2]
nums.sort()
print(nums)
words = ["pear", "apple"]
words.sort()
print(words)
`
	expectOutput(t, source, "[1.5, 2, 3]\n[\"apple\", \"pear\"]\n")
}

func TestSortMixedTypes(t *testing.T) {
	diag := runErr(t, "xs = [1, \"a\"]\nxs.sort()\n")
	if diag.Kind != errors.TypeError {
		t.Errorf("kind = %v, want TypeError", diag.Kind)
	}
}

func TestMapMethods(t *testing.T) {
	source := `m = Map()
m.set("a", 1)
m.set("a", 2)
print(m.get("a"))
print(m.get("missing"))
print(m.has("a"), m.has("b"))
m.remove("a")
print(len(m))
`
	expectOutput(t, source, "2\nNone\ntrue false\n0\n")
}

func TestMapRemoveMissing(t *testing.T) {
	diag := runErr(t, "m = Map()\nm.remove(\"x\")\n")
	if diag.Kind != errors.KeyError {
		t.Errorf("kind = %v, want KeyError", diag.Kind)
	}
}

func TestSetMethods(t *testing.T) {
	source := `s = Set()
s.add(1)
s.add(1)
s.add(2)
print(s.has(1), s.has(9))
s.remove(1)
print(len(s))
`
	expectOutput(t, source, "true false\n1\n")
}

func TestSetRemoveMissing(t *testing.T) {
	diag := runErr(t, "s = Set()\ns.remove(3)\n")
	if diag.Kind != errors.KeyError {
		t.Errorf("kind = %v, want KeyError", diag.Kind)
	}
	if diag.Message != "element not found: 3" {
		t.Errorf("message = %q", diag.Message)
	}
}

func TestStringSplit(t *testing.T) {
	source := `parts = "a,b,c".split(",")
print(len(parts), parts[1])
`
	expectOutput(t, source, "3 b\n")
}

func TestUnknownMethod(t *testing.T) {
	diag := runErr(t, "xs = [1]\nxs.shift()\n")
	if diag.Kind != errors.AttributeError {
		t.Errorf("kind = %v, want AttributeError", diag.Kind)
	}
	if !strings.Contains(diag.Message, "Array has no method 'shift'") {
		t.Errorf("message = %q", diag.Message)
	}
}

func TestMethodArity(t *testing.T) {
	diag := runErr(t, "xs = [1]\nxs.push(1, 2)\n")
	if diag.Kind != errors.TypeError {
		t.Errorf("kind = %v, want TypeError", diag.Kind)
	}
	if diag.Message != "push() takes exactly 1 argument (2 given)" {
		t.Errorf("message = %q", diag.Message)
	}
}

func TestTupleHasNoMethods(t *testing.T) {
	diag := runErr(t, "t = (1, 2)\nt.push(3)\n")
	if diag.Kind != errors.AttributeError {
		t.Errorf("kind = %v, want AttributeError", diag.Kind)
	}
}

func TestBareMethodReference(t *testing.T) {
	diag := runErr(t, "xs = [1]\nf = xs.push\n")
	if diag.Kind != errors.TypeError {
		t.Errorf("kind = %v, want TypeError", diag.Kind)
	}
	if !strings.Contains(diag.Message, "method reference 'push' must be called") {
		t.Errorf("message = %q", diag.Message)
	}
}

// ============================================================================
// 内置函数
// ============================================================================

func TestBuiltinConversions(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"print(len(\"hello\"))\n", "5\n"},
		{"print(chr(65))\n", "A\n"},
		{"print(ord(\"A\"))\n", "65\n"},
		{"print(int(\"42\"))\n", "42\n"},
		{"print(int(3.9))\n", "3\n"},
		{"print(int(-3.9))\n", "-3\n"},
		{"print(float(2))\n", "2.0\n"},
		{"print(str(12) + \"!\")\n", "12!\n"},
		{"print(abs(-4))\n", "4\n"},
		{"print(abs(-2.5))\n", "2.5\n"},
	}
	for _, tt := range tests {
		expectOutput(t, tt.source, tt.want)
	}
}

func TestIntParseError(t *testing.T) {
	diag := runErr(t, "int(\"abc\")\n")
	if diag.Kind != errors.ValueError {
		t.Errorf("kind = %v, want ValueError", diag.Kind)
	}
	if diag.Message != "invalid literal for int(): 'abc'" {
		t.Errorf("message = %q", diag.Message)
	}
}

func TestAbsTypeError(t *testing.T) {
	diag := runErr(t, "abs(\"x\")\n")
	if diag.Kind != errors.TypeError {
		t.Errorf("kind = %v, want TypeError", diag.Kind)
	}
}

func TestInput(t *testing.T) {
	p := parser.New("name = input(\"? \")\nprint(\"hi \" + name)\n", "test.cb")
	program := p.Parse()
	if p.HasErrors() {
		t.Fatalf("parse errors: %v", p.Errors()[0])
	}

	var out bytes.Buffer
	interp := New()
	interp.SetStdout(&out)
	interp.SetStdin(strings.NewReader("ana\n"))
	if err := interp.Evaluate(program); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if got := out.String(); got != "? hi ana\n" {
		t.Errorf("output = %q", got)
	}
}

func TestReadFileAndLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(path, []byte("uno\ndos\r\ntres\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	source := `text = read_file("` + path + `")
print(len(text))
lines = read_lines("` + path + `")
print(len(lines), lines[0], lines[1], lines[2])
`
	expectOutput(t, source, "14\n3 uno dos tres\n")
}

func TestReadFileMissing(t *testing.T) {
	diag := runErr(t, "read_file(\"/nonexistent/file.txt\")\n")
	if diag.Kind != errors.FileNotFoundError {
		t.Errorf("kind = %v, want FileNotFoundError", diag.Kind)
	}
	if diag.Message != "File not found: /nonexistent/file.txt" {
		t.Errorf("message = %q", diag.Message)
	}
}

// def 内置名会改写内置帧中的绑定，此后的调用得到用户函数
func TestShadowBuiltin(t *testing.T) {
	source := `def len(x):
    return 99

print(len("abc"))
`
	expectOutput(t, source, "99\n")
}

// ============================================================================
// 端到端场景
// ============================================================================

func TestScenarioWordPipeline(t *testing.T) {
	source := `line = "3,1"
parts = line.split(",")
nums = []
for i = 0; i < len(parts); i = i + 1:
    nums.push(int(parts[i]))
nums.sort()
print(abs(nums[0] - 0))
print(nums[1])
`
	expectOutput(t, source, "1\n3\n")
}

func TestScenarioMapSetCounts(t *testing.T) {
	source := `counts = Map()
counts.set("a", 1)
counts.set("a", 2)
counts.set("b", 1)
print(len(counts))
seen = Set()
seen.add("x")
seen.add("x")
seen.add("y")
seen.add("z")
print(len(seen))
`
	expectOutput(t, source, "2\n3\n")
}
