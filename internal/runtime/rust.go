package runtime

import "text/template"

var rustTemplate = template.Must(template.New("bridge_rt.rs").Parse(`// {{.Banner}}

//! Runtime types shared by every generated bridge. The layout of each type
//! below is part of the bridge ABI; see the assertions at the end.

#![allow(clippy::missing_safety_doc, unsafe_op_in_unsafe_fn)]

use core::fmt;
use core::marker::PhantomData;
use core::mem::{self, ManuallyDrop};
use core::ops::Deref;
use core::panic::AssertUnwindSafe;
use core::ptr;
use core::slice;
use std::any::Any;
use std::panic;

/// Borrowed UTF-8 text crossing the boundary as pointer and length.
#[repr(C)]
#[derive(Copy, Clone)]
pub struct Str {
    ptr: *const u8,
    len: usize,
}

impl Str {
    pub fn from(s: &str) -> Self {
        Str { ptr: s.as_ptr(), len: s.len() }
    }

    pub unsafe fn as_str<'a>(self) -> &'a str {
        core::str::from_utf8_unchecked(bytes(self.ptr, self.len))
    }
}

/// Borrowed elements crossing the boundary as pointer and length.
#[repr(C)]
pub struct SliceRepr<T> {
    ptr: *mut T,
    len: usize,
}

impl<T> Copy for SliceRepr<T> {}

impl<T> Clone for SliceRepr<T> {
    fn clone(&self) -> Self {
        *self
    }
}

impl<T> SliceRepr<T> {
    pub fn from_ref(s: &[T]) -> Self {
        SliceRepr { ptr: s.as_ptr() as *mut T, len: s.len() }
    }

    pub fn from_mut(s: &mut [T]) -> Self {
        SliceRepr { ptr: s.as_mut_ptr(), len: s.len() }
    }

    pub unsafe fn as_slice<'a>(self) -> &'a [T] {
        if self.len == 0 {
            return &[];
        }
        slice::from_raw_parts(self.ptr, self.len)
    }

    pub unsafe fn as_mut_slice<'a>(self) -> &'a mut [T] {
        if self.len == 0 {
            return &mut [];
        }
        slice::from_raw_parts_mut(self.ptr, self.len)
    }
}

/// A host callback handed to native code: the trampoline native code calls
/// and the host function pointer it forwards to.
#[repr(C)]
#[derive(Copy, Clone)]
pub struct FnRepr {
    trampoline: *const (),
    fn_: *const (),
}

impl FnRepr {
    #[doc(hidden)]
    pub unsafe fn new(trampoline: *const (), fn_: *const ()) -> Self {
        FnRepr { trampoline, fn_ }
    }
}

/// Implemented by generated glue for every native type held in a UniquePtr.
pub unsafe trait UniquePtrTarget {
    #[doc(hidden)]
    unsafe fn __drop(ptr: *mut Self);
}

/// Owning pointer to a native object. Dropping it runs the native deleter.
#[repr(transparent)]
pub struct UniquePtr<T: UniquePtrTarget> {
    ptr: *mut T,
    _owns: PhantomData<T>,
}

impl<T: UniquePtrTarget> UniquePtr<T> {
    pub fn null() -> Self {
        UniquePtr { ptr: ptr::null_mut(), _owns: PhantomData }
    }

    pub fn is_null(&self) -> bool {
        self.ptr.is_null()
    }

    pub fn as_ref(&self) -> Option<&T> {
        unsafe { self.ptr.as_ref() }
    }

    #[doc(hidden)]
    pub unsafe fn from_raw(ptr: *mut T) -> Self {
        UniquePtr { ptr, _owns: PhantomData }
    }

    /// Releases ownership; the handle is consumed.
    #[doc(hidden)]
    pub fn into_raw(self) -> *mut T {
        let ptr = self.ptr;
        mem::forget(self);
        ptr
    }
}

impl<T: UniquePtrTarget> Deref for UniquePtr<T> {
    type Target = T;

    fn deref(&self) -> &T {
        match self.as_ref() {
            Some(target) => target,
            None => panic!("called deref on a null UniquePtr"),
        }
    }
}

impl<T: UniquePtrTarget> Drop for UniquePtr<T> {
    fn drop(&mut self) {
        if !self.ptr.is_null() {
            unsafe { T::__drop(self.ptr) }
        }
    }
}

/// Error returned by a fallible native function. Its message is the text of
/// the native exception, unchanged.
pub struct Error {
    msg: String,
}

impl Error {
    pub fn what(&self) -> &str {
        &self.msg
    }
}

impl fmt::Display for Error {
    fn fmt(&self, f: &mut fmt::Formatter) -> fmt::Result {
        f.write_str(&self.msg)
    }
}

impl fmt::Debug for Error {
    fn fmt(&self, f: &mut fmt::Formatter) -> fmt::Result {
        f.debug_tuple("Error").field(&self.msg).finish()
    }
}

impl std::error::Error for Error {}

/// The fallible-call channel: disc 0 holds ok, anything else holds the
/// error message. Exactly one member is ever initialized.
#[repr(C)]
pub struct ResultRepr<T> {
    disc: usize,
    payload: ResultPayload<T>,
}

#[repr(C)]
union ResultPayload<T> {
    ok: ManuallyDrop<T>,
    err: ManuallyDrop<String>,
}

impl<T> ResultRepr<T> {
    pub fn ok(value: T) -> Self {
        ResultRepr { disc: 0, payload: ResultPayload { ok: ManuallyDrop::new(value) } }
    }

    pub fn err(msg: String) -> Self {
        ResultRepr { disc: 1, payload: ResultPayload { err: ManuallyDrop::new(msg) } }
    }

    pub fn from_result(result: Result<T, String>) -> Self {
        match result {
            Ok(value) => Self::ok(value),
            Err(msg) => Self::err(msg),
        }
    }

    pub unsafe fn into_result(self) -> Result<T, Error> {
        if self.disc == 0 {
            Ok(ManuallyDrop::into_inner(ptr::read(&self.payload.ok)))
        } else {
            Err(Error { msg: ManuallyDrop::into_inner(ptr::read(&self.payload.err)) })
        }
    }
}

/// Runs f, aborting the process if it panics. Used where no error channel
/// exists; unwinding into native code is undefined behavior.
pub fn abort_on_panic<R>(label: &str, f: impl FnOnce() -> R) -> R {
    match panic::catch_unwind(AssertUnwindSafe(f)) {
        Ok(value) => value,
        Err(payload) => {
            eprintln!("bridge: panic in {}: {}", label, panic_message(&payload));
            std::process::abort()
        }
    }
}

/// Runs a fallible host function, turning both its error and any panic into
/// an error message. The message is the error's Display text.
pub fn catch_unwind_result<T, E: fmt::Display>(f: impl FnOnce() -> Result<T, E>) -> Result<T, String> {
    match panic::catch_unwind(AssertUnwindSafe(f)) {
        Ok(Ok(value)) => Ok(value),
        Ok(Err(err)) => Err(err.to_string()),
        Err(payload) => Err(panic_message(&payload)),
    }
}

fn panic_message(payload: &Box<dyn Any + Send>) -> String {
    if let Some(s) = payload.downcast_ref::<&str>() {
        (*s).to_owned()
    } else if let Some(s) = payload.downcast_ref::<String>() {
        s.clone()
    } else {
        "panic".to_owned()
    }
}

unsafe fn bytes<'a>(ptr: *const u8, len: usize) -> &'a [u8] {
    if len == 0 {
        return &[];
    }
    slice::from_raw_parts(ptr, len)
}

#[doc(hidden)]
#[export_name = "{{.ABI}}$string$new"]
unsafe extern "C" fn string_new(this: *mut String) {
    ptr::write(this, String::new());
}

#[doc(hidden)]
#[export_name = "{{.ABI}}$string$clone"]
unsafe extern "C" fn string_clone(this: *mut String, other: &String) {
    ptr::write(this, other.clone());
}

#[doc(hidden)]
#[export_name = "{{.ABI}}$string$from_utf8"]
unsafe extern "C" fn string_from_utf8(this: *mut String, data: *const u8, len: usize) -> bool {
    match core::str::from_utf8(bytes(data, len)) {
        Ok(s) => {
            ptr::write(this, s.to_owned());
            true
        }
        Err(_) => false,
    }
}

#[doc(hidden)]
#[export_name = "{{.ABI}}$string$from_utf8_lossy"]
unsafe extern "C" fn string_from_utf8_lossy(this: *mut String, data: *const u8, len: usize) {
    ptr::write(this, String::from_utf8_lossy(bytes(data, len)).into_owned());
}

#[doc(hidden)]
#[export_name = "{{.ABI}}$string$drop"]
unsafe extern "C" fn string_drop(this: *mut String) {
    ptr::drop_in_place(this);
}

#[doc(hidden)]
#[export_name = "{{.ABI}}$string$ptr"]
unsafe extern "C" fn string_ptr(this: &String) -> *const u8 {
    this.as_ptr()
}

#[doc(hidden)]
#[export_name = "{{.ABI}}$string$len"]
unsafe extern "C" fn string_len(this: &String) -> usize {
    this.len()
}

#[doc(hidden)]
#[export_name = "{{.ABI}}$str$valid"]
unsafe extern "C" fn str_valid(data: *const u8, len: usize) -> bool {
    core::str::from_utf8(bytes(data, len)).is_ok()
}
{{.RustInstances}}
const _: () = {
    let word = mem::size_of::<usize>();
{{- range .Contracts}}{{if .Rust}}
    assert!(mem::size_of::<{{.Rust}}>() == {{.Words}} * word);
    assert!(mem::align_of::<{{.Rust}}>() == word);
{{- end}}{{end}}
    assert!(mem::size_of::<ResultRepr<()>>() == 4 * word);
    assert!(mem::size_of::<isize>() == word);
};
`))
