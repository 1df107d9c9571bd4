package runtime

import "text/template"

var headerTemplate = template.Must(template.New("bridge.h").Parse(`// {{.Banner}}
//
// Runtime types shared by every generated bridge. The layout of each class
// below is part of the bridge ABI; see the static_asserts at the end.
#pragma once
#include <array>
#include <cstddef>
#include <cstdint>
#include <cstring>
#include <exception>
#include <initializer_list>
#include <memory>
#include <new>
#include <stdexcept>
#include <string>
#include <type_traits>
#include <utility>

namespace bridge {

using isize = ::std::ptrdiff_t;

namespace detail {

// alias_slot<N> stands in for usize or isize on platforms where they are
// the same type as a fixed-width integer.
template <int N>
struct alias_slot final {};

template <typename T, typename Fixed64, typename Fixed32, int N>
using distinct_or_slot = typename ::std::conditional<
    ::std::is_same<T, Fixed64>::value || ::std::is_same<T, Fixed32>::value,
    alias_slot<N>, T>::type;

using usize_slot = distinct_or_slot<::std::size_t, ::std::uint64_t, ::std::uint32_t, 0>;
using isize_slot = distinct_or_slot<isize, ::std::int64_t, ::std::int32_t, 1>;

} // namespace detail

// Owned UTF-8 string allocated by the host. Move leaves the source empty.
class String final {
public:
  String() noexcept;
  String(const String &);
  String(String &&) noexcept;
  ~String() noexcept;

  String(const ::std::string &);
  String(const char *);
  String(const char *, ::std::size_t);

  String &operator=(const String &);
  String &operator=(String &&) noexcept;

  explicit operator ::std::string() const;

  const char *data() const noexcept;
  ::std::size_t size() const noexcept;
  ::std::size_t length() const noexcept;
  bool empty() const noexcept;

  // lossy replaces invalid UTF-8 instead of throwing.
  static String lossy(const char *) noexcept;

private:
  struct uninit_t {};
  explicit String(uninit_t) noexcept {}

  ::std::array<::std::uintptr_t, 3> repr;
};

// Borrowed UTF-8 text: pointer and length, no terminator.
class Str final {
public:
  Str() noexcept;
  Str(const String &) noexcept;
  Str(const ::std::string &);
  Str(const char *);
  Str(const char *, ::std::size_t);

  explicit operator ::std::string() const;

  const char *data() const noexcept;
  ::std::size_t size() const noexcept;
  ::std::size_t length() const noexcept;
  bool empty() const noexcept;

private:
  const char *ptr;
  ::std::size_t len;
};

// Borrowed contiguous elements. Slice<const T> is a shared borrow and
// Slice<T> a mutable one.
template <typename T>
class Slice final {
public:
  Slice() noexcept : ptr(nullptr), len(0) {}
  Slice(T *ptr, ::std::size_t len) noexcept : ptr(ptr), len(len) {}

  T *data() const noexcept { return this->ptr; }
  ::std::size_t size() const noexcept { return this->len; }
  ::std::size_t length() const noexcept { return this->len; }
  bool empty() const noexcept { return this->len == 0; }

  T &operator[](::std::size_t n) const noexcept { return this->ptr[n]; }
  T *begin() const noexcept { return this->ptr; }
  T *end() const noexcept { return this->ptr + this->len; }

private:
  T *ptr;
  ::std::size_t len;
};

// Owned growable array allocated by the host. Move-only.
template <typename T>
class Vec final {
public:
  using value_type = T;

  Vec() noexcept;
  Vec(::std::initializer_list<T>);
  Vec(const Vec &) = delete;
  Vec(Vec &&) noexcept;
  ~Vec() noexcept;

  Vec &operator=(const Vec &) = delete;
  Vec &operator=(Vec &&) noexcept;

  ::std::size_t size() const noexcept;
  bool empty() const noexcept { return this->size() == 0; }
  const T *data() const noexcept;
  T *data() noexcept { return const_cast<T *>(static_cast<const Vec *>(this)->data()); }

  const T &operator[](::std::size_t n) const noexcept { return this->data()[n]; }
  T &operator[](::std::size_t n) noexcept { return this->data()[n]; }
  const T &at(::std::size_t n) const {
    if (n >= this->size()) {
      throw ::std::out_of_range("bridge::Vec index out of range");
    }
    return (*this)[n];
  }

  const T *begin() const noexcept { return this->data(); }
  const T *end() const noexcept { return this->data() + this->size(); }
  T *begin() noexcept { return this->data(); }
  T *end() noexcept { return this->data() + this->size(); }

  void reserve(::std::size_t new_cap) { this->reserve_total(new_cap); }
  void push_back(const T &value) { this->emplace_back(value); }
  void push_back(T &&value) { this->emplace_back(::std::move(value)); }

  template <typename... Args>
  void emplace_back(Args &&...args) {
    auto size = this->size();
    this->reserve_total(size + 1);
    ::new (this->data() + size) T(::std::forward<Args>(args)...);
    this->set_len(size + 1);
  }

private:
  void reserve_total(::std::size_t cap) noexcept;
  void set_len(::std::size_t len) noexcept;
  void drop() noexcept;

  ::std::array<::std::uintptr_t, 3> repr;
};

// Owning pointer to a host heap value. into_raw and moves leave the source
// null, so exactly one handle owns the pointee.
template <typename T>
class Box final {
public:
  using element_type = T;

  Box() = delete;
  Box(const Box &) = delete;
  Box(Box &&) noexcept;
  ~Box() noexcept;
  explicit Box(const T &);
  explicit Box(T &&);

  Box &operator=(const Box &) = delete;
  Box &operator=(Box &&) noexcept;

  const T *operator->() const noexcept { return this->ptr; }
  const T &operator*() const noexcept { return *this->ptr; }
  T *operator->() noexcept { return this->ptr; }
  T &operator*() noexcept { return *this->ptr; }

  static Box from_raw(T *) noexcept;
  T *into_raw() noexcept;

private:
  struct raw_t {};
  Box(raw_t, T *raw) noexcept : ptr(raw) {}

  static T *alloc() noexcept;
  static void dealloc(T *) noexcept;
  void drop() noexcept;

  T *ptr;
};

// Host callback: a trampoline and the host function it forwards to.
template <typename Signature>
class Fn;

template <typename Ret, typename... Args>
class Fn<Ret(Args...)> final {
public:
  Ret operator()(Args... args) const noexcept;

private:
  void *trampoline;
  void *fn;
};

// Error raised by a fallible host function. what() is the host message.
class Error final : public ::std::exception {
public:
  explicit Error(String msg) : msg(static_cast<::std::string>(msg)) {}

  const char *what() const noexcept override { return this->msg.c_str(); }

private:
  ::std::string msg;
};

} // namespace bridge

extern "C" {
void {{.ABI}}$string$new(::bridge::String *self) noexcept;
void {{.ABI}}$string$clone(::bridge::String *self, const ::bridge::String &other) noexcept;
bool {{.ABI}}$string$from_utf8(::bridge::String *self, const char *ptr, ::std::size_t len) noexcept;
void {{.ABI}}$string$from_utf8_lossy(::bridge::String *self, const char *ptr, ::std::size_t len) noexcept;
void {{.ABI}}$string$drop(::bridge::String *self) noexcept;
const char *{{.ABI}}$string$ptr(const ::bridge::String *self) noexcept;
::std::size_t {{.ABI}}$string$len(const ::bridge::String *self) noexcept;
bool {{.ABI}}$str$valid(const char *ptr, ::std::size_t len) noexcept;
{{.CxxExterns}}} // extern "C"

namespace bridge {

inline String::String() noexcept { {{.ABI}}$string$new(this); }

inline String::String(const String &other) { {{.ABI}}$string$clone(this, other); }

inline String::String(String &&other) noexcept : repr(other.repr) {
  {{.ABI}}$string$new(&other);
}

inline String::~String() noexcept { {{.ABI}}$string$drop(this); }

inline String::String(const ::std::string &s) : String(s.data(), s.size()) {}

inline String::String(const char *s) : String(s, ::std::strlen(s)) {}

inline String::String(const char *s, ::std::size_t len) {
  if (!{{.ABI}}$string$from_utf8(this, s, len)) {
    throw ::std::invalid_argument("data for bridge::String is not utf-8");
  }
}

inline String String::lossy(const char *s) noexcept {
  String out{uninit_t{}};
  {{.ABI}}$string$from_utf8_lossy(&out, s, ::std::strlen(s));
  return out;
}

inline String &String::operator=(const String &other) {
  if (this != &other) {
    {{.ABI}}$string$drop(this);
    {{.ABI}}$string$clone(this, other);
  }
  return *this;
}

inline String &String::operator=(String &&other) noexcept {
  if (this != &other) {
    {{.ABI}}$string$drop(this);
    this->repr = other.repr;
    {{.ABI}}$string$new(&other);
  }
  return *this;
}

inline String::operator ::std::string() const {
  return ::std::string(this->data(), this->size());
}

inline const char *String::data() const noexcept { return {{.ABI}}$string$ptr(this); }
inline ::std::size_t String::size() const noexcept { return {{.ABI}}$string$len(this); }
inline ::std::size_t String::length() const noexcept { return this->size(); }
inline bool String::empty() const noexcept { return this->size() == 0; }

inline Str::Str() noexcept : ptr(""), len(0) {}

inline Str::Str(const String &s) noexcept : ptr(s.data()), len(s.size()) {}

inline Str::Str(const ::std::string &s) : Str(s.data(), s.size()) {}

inline Str::Str(const char *s) : Str(s, ::std::strlen(s)) {}

inline Str::Str(const char *s, ::std::size_t len) : ptr(s), len(len) {
  if (!{{.ABI}}$str$valid(s, len)) {
    throw ::std::invalid_argument("data for bridge::Str is not utf-8");
  }
}

inline Str::operator ::std::string() const {
  return ::std::string(this->ptr, this->len);
}

inline const char *Str::data() const noexcept { return this->ptr; }
inline ::std::size_t Str::size() const noexcept { return this->len; }
inline ::std::size_t Str::length() const noexcept { return this->len; }
inline bool Str::empty() const noexcept { return this->len == 0; }

template <typename T>
Vec<T>::Vec(::std::initializer_list<T> init) : Vec{} {
  this->reserve_total(init.size());
  for (const T &item : init) {
    this->push_back(item);
  }
}

template <typename T>
Vec<T>::Vec(Vec &&other) noexcept : repr(other.repr) {
  new (&other) Vec();
}

template <typename T>
Vec<T>::~Vec() noexcept {
  this->drop();
}

template <typename T>
Vec<T> &Vec<T>::operator=(Vec &&other) noexcept {
  if (this != &other) {
    this->drop();
    this->repr = other.repr;
    new (&other) Vec();
  }
  return *this;
}

template <typename T>
Box<T>::Box(Box &&other) noexcept : ptr(other.ptr) {
  other.ptr = nullptr;
}

template <typename T>
Box<T>::Box(const T &value) : ptr(alloc()) {
  try {
    ::new (this->ptr) T(value);
  } catch (...) {
    dealloc(this->ptr);
    throw;
  }
}

template <typename T>
Box<T>::Box(T &&value) : ptr(alloc()) {
  try {
    ::new (this->ptr) T(::std::move(value));
  } catch (...) {
    dealloc(this->ptr);
    throw;
  }
}

template <typename T>
Box<T>::~Box() noexcept {
  if (this->ptr != nullptr) {
    this->drop();
  }
}

template <typename T>
Box<T> &Box<T>::operator=(Box &&other) noexcept {
  if (this != &other) {
    if (this->ptr != nullptr) {
      this->drop();
    }
    this->ptr = other.ptr;
    other.ptr = nullptr;
  }
  return *this;
}

template <typename T>
Box<T> Box<T>::from_raw(T *raw) noexcept {
  return Box(raw_t{}, raw);
}

template <typename T>
T *Box<T>::into_raw() noexcept {
  T *raw = this->ptr;
  this->ptr = nullptr;
  return raw;
}

{{.CxxSpecializations}}
namespace detail {

// ManuallyDrop holds a value whose destructor never runs; used when
// ownership moves to the host.
template <typename T>
union ManuallyDrop {
  T value;
  ManuallyDrop(T &&value) : value(::std::move(value)) {}
  ~ManuallyDrop() {}
};

// MaybeUninit is storage the host writes a return value into.
template <typename T>
union MaybeUninit {
  T value;
  MaybeUninit() {}
  ~MaybeUninit() {}

  // take moves the written value out and destroys the storage.
  T take() noexcept {
    T out(::std::move(this->value));
    this->value.~T();
    return out;
  }
};

struct Unit {};

// ResultRepr is the fallible-call channel: disc 0 holds ok, anything else
// holds the error message. Exactly one member is ever constructed.
template <typename T>
struct ResultRepr final {
  ResultRepr() noexcept {}
  ~ResultRepr() noexcept {}
  ResultRepr(const ResultRepr &) = delete;
  ResultRepr &operator=(const ResultRepr &) = delete;

  void set_ok(T value) noexcept {
    ::new (&this->ok) T(::std::move(value));
    this->disc = 0;
  }

  void set_err(const char *msg) noexcept {
    ::new (&this->err) String(String::lossy(msg));
    this->disc = 1;
  }

  T take() {
    if (this->disc != 0) {
      Error error(::std::move(this->err));
      this->err.~String();
      throw error;
    }
    T value(::std::move(this->ok));
    this->ok.~T();
    return value;
  }

  ::std::size_t disc;
  union {
    T ok;
    String err;
  };
};

template <>
struct ResultRepr<void> final {
  ResultRepr() noexcept {}
  ~ResultRepr() noexcept {}
  ResultRepr(const ResultRepr &) = delete;
  ResultRepr &operator=(const ResultRepr &) = delete;

  void set_ok() noexcept { this->disc = 0; }

  void set_err(const char *msg) noexcept {
    ::new (&this->err) String(String::lossy(msg));
    this->disc = 1;
  }

  void take() {
    if (this->disc != 0) {
      Error error(::std::move(this->err));
      this->err.~String();
      throw error;
    }
  }

  ::std::size_t disc;
  union {
    Unit ok;
    String err;
  };
};

} // namespace detail
{{range .Contracts}}
static_assert(sizeof({{.Cxx}}) == {{.Words}} * sizeof(void *), "bridge ABI: size of {{.Cxx}}");
static_assert(alignof({{.Cxx}}) == alignof(void *), "bridge ABI: alignment of {{.Cxx}}");
{{- end}}
static_assert(sizeof(detail::ResultRepr<void>) == 4 * sizeof(void *), "bridge ABI: size of ResultRepr");
static_assert(sizeof(isize) == sizeof(void *), "bridge ABI: size of isize");

} // namespace bridge
`))
